// Package main provides the entry point for kvmesh-server.
//
// The server hosts a single in-memory key/value database and exposes:
//
//   - the kv protocol listener for CREATE, READ, UPDATE, DELETE and SUB
//   - an optional HTTP side server with /health, /ready, /version and /metrics
//
// Usage:
//
//	kvmesh-server [flags]
//	kvmesh-server --config /path/to/config.yaml
//	kvmesh-server --addr 0.0.0.0:1122 --http-addr 0.0.0.0:5080
//
// Configuration is read from defaults, the optional YAML file, KVMESH_
// environment variables and flags, in that order. The log level follows
// edits to the config file without a restart.
package main
