// Package connection is the kvmesh-cli client for the key/value protocol.
//
// A Client consumes the server greeting on connect. Exec sends a batch of
// commands terminated by DISCONNECT and collects every response frame until
// the server closes the connection, which is how the client learns that a
// command produced no response. Subscribe keeps the connection open and
// streams notifications.
package connection
