package models

import "time"

type JournalState string

const (
	JournalUploaded  JournalState = "uploaded"
	JournalUncertain JournalState = "uncertain"
	JournalCommitted JournalState = "committed"
)

// JournalEntry records one artifact written to the object store by a submission,
// so that artifacts never referenced by an order can be found later.
type JournalEntry struct {
	SubmissionID  string        `json:"submission_id"`
	UserID        string        `json:"user_id"`
	StorageKey    string        `json:"storage_key"`
	ArtifactClass ArtifactClass `json:"artifact_class"`
	State         JournalState  `json:"state"`
	OrderID       *int64        `json:"order_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
