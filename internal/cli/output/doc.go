// Package output renders kvmesh-cli results as table, JSON or YAML.
//
// Values implementing Tabler control their own table layout; other structs,
// maps and slices are laid out by reflection.
package output
