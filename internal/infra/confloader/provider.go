package confloader

import "errors"

var errNoBytes = errors.New("confloader: map provider has no byte form")

// mapProvider feeds an already-nested map to koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errNoBytes
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
