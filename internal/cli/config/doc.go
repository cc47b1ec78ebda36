// Package config holds kvmesh-cli settings stored in ~/.kvmesh/cli.yaml.
//
// The file names a default server, output format and request timeout, plus
// named profiles that map to server addresses. Command-line flags override
// file values through Merge.
package config
