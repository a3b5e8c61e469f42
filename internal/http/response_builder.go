// Package http exposes the monthly billing view as a JSON API.
//
// This file implements the Builder Pattern for JSON responses so every
// handler answers with the same envelope and headers.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"tutorbill/internal/core"
	"tutorbill/internal/records"
	"tutorbill/internal/services"
)

// ResponseBuilder provides a fluent API for building JSON and file responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	body       []byte
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets a value to be encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.headers["Content-Type"] = "application/json"
	b.payload = v
	b.body = nil
	return b
}

// Attachment sets a downloadable body with the given file name.
func (b *ResponseBuilder) Attachment(contentType, filename string, data []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	b.payload = nil
	b.body = data
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	body := b.body
	if b.payload != nil {
		encoded, err := json.Marshal(b.payload)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		body = append(encoded, '\n')
	}

	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// errorBody is the JSON envelope of every error response.
type errorBody struct {
	Error  string                      `json:"error"`
	Field  string                      `json:"field,omitempty"`
	Result *services.GroupToggleResult `json:"result,omitempty"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ErrorFrom maps a service error onto a status code and body:
//
//	*services.PartialToggleError  207 when some toggles applied, else 502
//	*core.ValidationError         422
//	services.ErrStale             409
//	records.ErrNotFound           404
//	*core.NetworkError            502
//
// Anything else is a 500 without internal details.
func ErrorFrom(err error) *ResponseBuilder {
	var (
		perr *services.PartialToggleError
		verr *core.ValidationError
	)
	switch {
	case errors.As(err, &perr):
		status := http.StatusBadGateway
		if perr.Result.Partial() {
			status = http.StatusMultiStatus
		}
		result := perr.Result
		return NewResponse().Status(status).JSON(errorBody{Error: err.Error(), Result: &result})
	case errors.As(err, &verr):
		return NewResponse().Status(http.StatusUnprocessableEntity).
			JSON(errorBody{Error: verr.Reason.Error(), Field: verr.Field})
	case errors.Is(err, services.ErrStale):
		return ErrorResponse(http.StatusConflict, "the view changed while the request was running, reload and retry")
	case errors.Is(err, records.ErrNotFound):
		return NotFoundError(err.Error())
	case core.IsNetwork(err):
		return ErrorResponse(http.StatusBadGateway, err.Error())
	default:
		return InternalServerError("internal error")
	}
}
