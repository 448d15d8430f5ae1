// Package http provides the JSON API server and its handlers.
//
// This file implements the builder used for every response and the
// mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"brastech/internal/core"
	"brastech/internal/services"
	"brastech/internal/store"
)

// errBadRequest marks malformed input: unreadable bodies, bad query
// parameters, unknown path values.
var errBadRequest = errors.New("bad request")

// validationErrors answer 422: the request was well formed but the
// record it describes is not acceptable.
var validationErrors = []error{
	core.ErrInvalidType,
	core.ErrInvalidStatus,
	core.ErrStatusNotAllowed,
	core.ErrInvalidPayer,
	core.ErrPayerNotAllowed,
	core.ErrPaymentNotAllowed,
	core.ErrPaymentMismatch,
	core.ErrNegativeAmount,
	core.ErrDescriptionTooLong,
	core.ErrInvalidDate,
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrEmptyName,
	core.ErrInvalidEmail,
	core.ErrInvalidRole,
	core.ErrInvalidDueDay,
	core.ErrInvalidClient,
	core.ErrInvalidUserStat,
	services.ErrInstallmentCount,
	services.ErrEmptyDescription,
	services.ErrZeroTotal,
}

// StatusFor maps an error returned by the services to a status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnknownUser):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrReadOnlySession), errors.Is(err, services.ErrSuspendedUser):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// JSONResponseBuilder provides a fluent API for JSON replies.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	raw        []byte
}

// NewJSONResponse creates a builder with a 200 status and no body.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	b.raw = nil
	return b
}

// Raw sets an already encoded body.
func (b *JSONResponseBuilder) Raw(body []byte) *JSONResponseBuilder {
	b.raw = body
	b.payload = nil
	return b
}

// Attachment asks the browser to save the body as filename.
func (b *JSONResponseBuilder) Attachment(filename string) *JSONResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Write sends the built response. An encoding failure turns into a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body := b.raw
	if b.payload != nil {
		encoded, err := json.Marshal(b.payload)
		if err != nil {
			b.statusCode = http.StatusInternalServerError
			encoded = []byte(`{"error":"failed to encode response","status":500}`)
		}
		body = encoded
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(errorBody{Error: message, Status: statusCode})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// FromError builds the reply for err. Server errors never leak their text.
func FromError(err error) *JSONResponseBuilder {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		return InternalServerError()
	}
	return ErrorResponse(status, err.Error())
}

// NoContent replies 204 with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
