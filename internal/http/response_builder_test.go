package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulekamali/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusAccepted).
		Header("Location", "/api/v1/imports").
		Body(map[string]string{"job_id": "abc"}).
		Write(rec)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "/api/v1/imports", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"job_id":"abc"}`, rec.Body.String())
}

func TestErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorResponse(http.StatusNotFound, "project 9: not found").Write(rec)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "project 9: not found", body["error"])
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("project 3: %w", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: %w", core.ErrInvalidInput, core.ErrInvalidQuarter), http.StatusUnprocessableEntity},
		{errors.Join(core.ErrUnavailable, errors.New("dial")), http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}
