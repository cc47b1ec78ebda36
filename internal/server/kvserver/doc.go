// Package kvserver serves the kvmesh wire protocol over TCP.
//
// Each accepted connection becomes a session with two goroutines: a
// reader that decodes frames and executes them against the shared
// database, and a writer that drains the session's outbox to the socket.
// The outbox doubles as the session's subscriber handle, so update
// notifications and command responses reach the client in the order the
// database produced them.
package kvserver
