package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "bad date", "date")

	assert.Equal(t, "bad date", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "date", err.Details)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"invalid request", InvalidRequestWithError(stderrors.New("eof")), http.StatusBadRequest, "INVALID_REQUEST"},
		{"validation", ErrValidation("date", "must be 8 digits"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"not found", NotFoundError("Date"), http.StatusNotFound, "NOT_FOUND"},
		{"filesystem", FileSystemError("read", stderrors.New("denied")), http.StatusInternalServerError, "FILESYSTEM_ERROR"},
		{"internal", NewInternalError("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"multiple fields", NewValidationErrors([]ValidationError{{Field: "date"}}), http.StatusBadRequest, "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
		})
	}

	assert.Equal(t, "Date not found", NotFoundError("Date").Message)
}

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", NewNotFoundError("Stock data"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", NewConflictError("conversion already running"), http.StatusConflict, "CONFLICT"},
		{"validation", NewAppValidationError("bad magic"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"decode", NewDecodeError("bad column", nil), http.StatusUnprocessableEntity, "DECODE_FAILED"},
		{"storage", NewStorageError("open", stderrors.New("denied")), http.StatusInternalServerError, "FILESYSTEM_ERROR"},
		{"config", NewConfigError("bad", nil), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"wrapped", fmt.Errorf("ctx: %w", NewNotFoundError("Date")), http.StatusNotFound, "NOT_FOUND"},
		{"plain", stderrors.New("plain"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromAppError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(rec, ErrConversionRunning)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "CONVERSION_RUNNING", body.Error.ErrorCode)
}
