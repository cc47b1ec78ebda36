// Package main provides the entry point for kvmesh-cli.
//
// kvmesh-cli talks to a kvmesh-server over the kv protocol:
//
//	kvmesh-cli create greeting hello
//	kvmesh-cli update --int counter 42
//	kvmesh-cli -o json read greeting
//	kvmesh-cli sub greeting
//
// The server address comes from --server, KVMESH_SERVER or the active
// profile in ~/.kvmesh/cli.yaml.
package main
