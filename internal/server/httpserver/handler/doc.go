// Package handler implements the HTTP side server endpoints.
//
// JSON responses share the Response envelope; /metrics is delegated to the
// Prometheus handler and uses the exposition format.
package handler
