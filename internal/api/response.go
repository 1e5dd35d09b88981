package api

import (
	"context"
	"errors"
	"net/http"

	"tradeexplorer/internal/dataset"
	"tradeexplorer/internal/partition"
)

// Response is the envelope of every API reply.
type Response struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

func Success(statusCode int, data any) Response {
	return Response{Status: "success", StatusCode: statusCode, Data: data}
}

func Error(statusCode int, message string) Response {
	return Response{Status: "error", StatusCode: statusCode, Error: message}
}

// statusOf maps a view failure to an HTTP status. Engine failures fall
// through to 500.
func statusOf(err error) int {
	switch {
	case errors.Is(err, partition.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, partition.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, dataset.ErrNoCountries):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
