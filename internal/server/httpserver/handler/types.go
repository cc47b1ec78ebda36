package handler

import (
	"time"

	"github.com/yndnr/kvmesh-go/internal/infra/buildinfo"
)

// Response is the standard API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, data any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// Stats is the database summary reported by /ready.
type Stats struct {
	Keys        int `json:"keys"`
	Subscribers int `json:"subscribers"`
}

// StatsFunc returns current database totals.
type StatsFunc func() Stats

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status string `json:"status"`
	Stats  *Stats `json:"stats,omitempty"`
}

// VersionResponse is the body of GET /version.
type VersionResponse = buildinfo.Info
