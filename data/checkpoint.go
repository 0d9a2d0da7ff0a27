package data

import (
	"time"

	"github.com/google/uuid"
)

// Checkpoint identifies an immutable snapshot of a document.
type Checkpoint struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified"`
}

// NewCheckpointID returns a time ordered, opaque checkpoint id.
func NewCheckpointID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// IsCheckpointID reports whether id has the shape NewCheckpointID produces.
func IsCheckpointID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
