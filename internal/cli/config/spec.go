package config

import "time"

// Defaults.
const (
	DefaultServer  = "127.0.0.1:1122"
	DefaultOutput  = "table"
	DefaultTimeout = 5 * time.Second
)

// CLIConfig is the configuration for kvmesh-cli.
type CLIConfig struct {
	Server  string        `yaml:"server" json:"server"`
	Output  string        `yaml:"output" json:"output"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Profiles are named server addresses; Current selects one.
	Profiles map[string]Profile `yaml:"profiles,omitempty" json:"profiles,omitempty"`
	Current  string             `yaml:"current,omitempty" json:"current,omitempty"`
}

// Profile is a saved connection target.
type Profile struct {
	Server string `yaml:"server" json:"server"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:   DefaultServer,
		Output:   DefaultOutput,
		Timeout:  DefaultTimeout,
		Profiles: make(map[string]Profile),
	}
}

// ServerAddr returns the address of the named profile, or of the current
// profile when name is empty, falling back to Server.
func (c *CLIConfig) ServerAddr(name string) (string, bool) {
	if name == "" {
		name = c.Current
	}
	if name == "" {
		return c.Server, true
	}
	p, ok := c.Profiles[name]
	if !ok {
		return "", false
	}
	return p.Server, true
}
