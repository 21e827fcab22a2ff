package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Component: "test", Handler: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf)

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestComponentMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := bufferLogger(&buf)

	var component string
	h := ComponentMiddleware(ComponentAPI)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		component = FromContext(r.Context()).Component()
		FromContext(r.Context()).InfoContext(r.Context(), "handled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req = req.WithContext(NewContext(req.Context(), base))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, ComponentAPI, component)
	assert.Contains(t, buf.String(), "component=api")
}

func TestEvents(t *testing.T) {
	var buf bytes.Buffer
	events := NewEvents(bufferLogger(&buf))

	events.SnapshotSaved(context.Background(), 7, "2019-20", 3, "mem:7:2019-20:Q3")
	assert.Contains(t, buf.String(), "project_id=7")
	assert.Contains(t, buf.String(), "quarter=3")
	assert.Contains(t, buf.String(), "ref=mem:7:2019-20:Q3")

	buf.Reset()
	events.Failure(context.Background(), "Request failed", errors.New("boom"), OpRead, NewFields().Set(FieldRequestID, "req_1"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "error=boom")
	assert.Contains(t, buf.String(), "request_id=req_1")
	assert.Contains(t, buf.String(), "operation=read")

	buf.Reset()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects?sphere=national", nil)
	events.RequestCompleted(context.Background(), req, http.StatusNotFound, 0, "10.0.0.1")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "sphere=national")
	assert.Contains(t, buf.String(), "status_code=404")
}

func TestFields_KeepInsertionOrder(t *testing.T) {
	f := NewFields().Set("b", 1).Set("a", 2).Set("b", 3).WithError(nil)

	assert.Equal(t, []any{"b", 3, "a", 2}, f.Args())
}

func TestNew_JSONFormatAttachesComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Writer: &buf, Component: ComponentWorker})

	logger.With(FieldJobID, "j1").WithComponent(ComponentImport).Info("Import finished")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Import finished", entry["msg"])
	assert.Equal(t, ComponentImport, entry["component"])
	assert.Equal(t, "j1", entry["job_id"])
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"component"`)))
}

func TestNew_LevelFiltersText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Writer: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
