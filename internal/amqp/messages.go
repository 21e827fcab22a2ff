package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotImportMessage asks the import worker to pull quarterly reports from
// the source workbook. An empty ProjectID means every project.
type SnapshotImportMessage struct {
	JobID     string    `json:"job_id"`
	ProjectID string    `json:"project_id,omitempty"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSnapshotImportMessage creates a request with a fresh job id. projectID
// is the project's external id and may be empty.
func NewSnapshotImportMessage(source, projectID string) *SnapshotImportMessage {
	return &SnapshotImportMessage{
		JobID:     uuid.NewString(),
		ProjectID: projectID,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotImportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotImportMessageFromJSON decodes and checks a message body.
func SnapshotImportMessageFromJSON(data []byte) (*SnapshotImportMessage, error) {
	var msg SnapshotImportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.JobID); err != nil {
		return nil, fmt.Errorf("invalid job id %q: %w", msg.JobID, err)
	}
	if msg.Source == "" {
		return nil, errors.New("missing source")
	}
	return &msg, nil
}
