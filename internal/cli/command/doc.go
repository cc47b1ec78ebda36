// Package command defines the kvmesh-cli commands on urfave/cli/v2.
//
// Each key command dials the server, sends one batch terminated by
// DISCONNECT and renders whatever came back. sub keeps the connection open
// and prints notifications as they arrive.
package command
