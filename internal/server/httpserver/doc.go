// Package httpserver provides the optional HTTP side server.
//
// It exposes operational endpoints next to the key/value protocol listener:
//
//   - GET /health: liveness
//   - GET /ready: readiness plus key and subscriber counts
//   - GET /version: build information
//   - GET /metrics: Prometheus exposition
//
// Every route passes through the Recover, RequestID and AccessLog
// middleware.
package httpserver
