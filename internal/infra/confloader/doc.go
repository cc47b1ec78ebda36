// Package confloader provides the configuration loading mechanism.
//
// This package implements a layered configuration loader on top of koanf.
//
// Features:
//
//   - Multiple Sources: YAML files, environment variables, flag maps
//   - Watch Support: callbacks when the config file changes on disk
//   - Type Safety: Unmarshaling into structs tagged with `koanf`
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Values already present in the target struct
//
// Environment variables nest with a double underscore, since key names
// themselves contain underscores:
//
//	KVMESH_SERVER__KV__READ_BUFFER_SIZE=4096  ->  server.kv.read_buffer_size
package confloader
