package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Events writes the recurring log lines of the HTTP and import paths with a
// consistent set of attributes.
type Events struct {
	logger *Logger
}

func NewEvents(logger *Logger) *Events {
	return &Events{logger: logger}
}

func (e *Events) RequestStarted(ctx context.Context, r *http.Request, clientIP string) {
	f := NewFields().WithRequest(r, true).Set(FieldClientIP, clientIP)
	e.logger.InfoContext(ctx, "HTTP request started", f.Args()...)
}

// RequestCompleted logs at warn for 4xx and error for 5xx.
func (e *Events) RequestCompleted(ctx context.Context, r *http.Request, statusCode int, elapsed time.Duration, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	f := NewFields().
		WithRequest(r, false).
		WithResponse(statusCode, elapsed).
		Set(FieldClientIP, clientIP)
	e.logger.Log(ctx, level, "HTTP request completed", f.Args()...)
}

func (e *Events) SnapshotSaved(ctx context.Context, projectID int64, financialYear string, quarter int, ref string) {
	f := NewFields().
		WithSnapshot(projectID, financialYear, quarter).
		WithOperation(OpCreate).
		Set(FieldRef, ref)
	e.logger.InfoContext(ctx, "Snapshot saved", f.Args()...)
}

// Failure logs err at error level. extra may be nil.
func (e *Events) Failure(ctx context.Context, msg string, err error, operation string, extra *Fields) {
	if extra == nil {
		extra = NewFields()
	}
	extra.WithOperation(operation).WithError(err)
	e.logger.ErrorContext(ctx, msg, extra.Args()...)
}
