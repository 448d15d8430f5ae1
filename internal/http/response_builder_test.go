package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"brastech/internal/core"
	"brastech/internal/services"
	"brastech/internal/store"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Data(map[string]int{"count": 2}).
		Write(w)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "value", w.Header().Get("X-Custom"))
	assert.JSONEq(t, `{"count":2}`, w.Body.String())
}

func TestJSONResponseBuilder_RawAndAttachment(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Attachment("backup.json").Raw([]byte(`{"a":1}`)).Write(w)

	assert.Equal(t, `attachment; filename="backup.json"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, `{"a":1}`, w.Body.String())
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Data(map[string]any{"bad": make(chan int)}).Write(w)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to encode")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("%w: x", errBadRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: a@b.c", services.ErrUnknownUser), http.StatusUnauthorized},
		{services.ErrSuspendedUser, http.StatusForbidden},
		{fmt.Errorf("create: %w", services.ErrReadOnlySession), http.StatusForbidden},
		{fmt.Errorf("tx 1: %w", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("validate: %w", core.ErrInvalidDate), http.StatusUnprocessableEntity},
		{services.ErrInstallmentCount, http.StatusUnprocessableEntity},
		{core.ErrInvalidDueDay, http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}

func TestFromErrorHidesServerErrors(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(errors.New("sqlite: database is locked")).Write(w)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "sqlite")

	w = httptest.NewRecorder()
	FromError(fmt.Errorf("tx 9: %w", store.ErrNotFound)).Write(w)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"tx 9: record not found","status":404}`, w.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		code    int
	}{
		{"BadRequest", BadRequestError("bad"), http.StatusBadRequest},
		{"NotFound", NotFoundError("missing"), http.StatusNotFound},
		{"Internal", InternalServerError(), http.StatusInternalServerError},
		{"Custom", ErrorResponse(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"status":`)
		})
	}
}
