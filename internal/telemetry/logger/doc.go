// Package logger provides structured logging for kvmesh.
//
// This package wraps log/slog:
//
//   - logger.go: handler construction, levels and the global logger
//   - context.go: request ID propagation for the HTTP side server
//   - clip.go: truncation of client-controlled attributes
//
// Features:
//
//   - JSON and text output formats
//   - Runtime log level changes
//   - Bounded output for payload and value attributes
//   - Request ID propagation through context
package logger
