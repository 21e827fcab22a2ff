// Package backend assembles the store the binaries read from and write to,
// plus the optional queue that hands workbook imports to the worker.
package backend

import (
	"context"

	"vulekamali/internal/services"
	"vulekamali/internal/sheets"
)

// Backend is every port the web server, worker and CLI need from storage.
type Backend interface {
	sheets.ProjectReader
	sheets.ProjectWriter
	sheets.SnapshotReader
	sheets.SnapshotWriter
	sheets.ImportRunRecorder
	sheets.ImportRunLister

	// Ready reports whether the backend can serve requests.
	Ready(ctx context.Context) error
}

// CleanupFunc releases what a backend holds open.
type CleanupFunc func() error

// BackendResult is a created backend and what it holds open.
type BackendResult struct {
	Backend Backend
	// Publisher queues import requests; nil when no broker is reachable.
	Publisher services.ImportPublisher
	Cleanup   CleanupFunc
}

// Close runs Cleanup once it is set. Safe on a result without one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	cleanup := r.Cleanup
	r.Cleanup = nil
	return cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config selects and locates a backend.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	// FixturePath seeds the memory backend; a missing file starts it empty.
	FixturePath string

	// AMQPURL enables queued imports for either backend type.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names a storage implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true for the known backend types.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
