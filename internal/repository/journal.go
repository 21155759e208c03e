package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Bessima/translation-orders/internal/config/db"
	"github.com/Bessima/translation-orders/internal/models"
)

// JournalRepository is the durable log of artifacts written to the object store.
type JournalRepository struct {
	db *db.DB
}

type JournalRepositoryI interface {
	Record(ctx context.Context, entries []models.JournalEntry) error
	MarkCommitted(ctx context.Context, submissionID string, orderID int64) error
	GetOrphaned(ctx context.Context, olderThan time.Time) ([]models.JournalEntry, error)
}

func NewJournalRepository(dbObj *db.DB) *JournalRepository {
	return &JournalRepository{db: dbObj}
}

// Record inserts all entries with one statement.
func (repository *JournalRepository) Record(ctx context.Context, entries []models.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	submissionIDs := make([]string, 0, len(entries))
	userIDs := make([]string, 0, len(entries))
	keys := make([]string, 0, len(entries))
	classes := make([]string, 0, len(entries))
	states := make([]string, 0, len(entries))
	for _, entry := range entries {
		submissionIDs = append(submissionIDs, entry.SubmissionID)
		userIDs = append(userIDs, entry.UserID)
		keys = append(keys, entry.StorageKey)
		classes = append(classes, string(entry.ArtifactClass))
		states = append(states, string(entry.State))
	}

	query := `INSERT INTO upload_journal (submission_id, user_id, storage_key, artifact_class, state)
		SELECT * FROM unnest($1::uuid[], $2::text[], $3::text[], $4::text[], $5::text[])`

	tag, err := repository.db.Pool.Exec(ctx, query, submissionIDs, userIDs, keys, classes, states)
	if err != nil {
		return fmt.Errorf("journal entries were not recorded: %w", err)
	}
	if tag.RowsAffected() != int64(len(entries)) {
		return fmt.Errorf("journal recorded %d of %d entries", tag.RowsAffected(), len(entries))
	}
	return nil
}

func (repository *JournalRepository) MarkCommitted(ctx context.Context, submissionID string, orderID int64) error {
	query := `UPDATE upload_journal SET state = $1, order_id = $2 WHERE submission_id = $3`

	tag, err := repository.db.Pool.Exec(ctx, query, string(models.JournalCommitted), orderID, submissionID)
	if err != nil {
		return fmt.Errorf("journal entries were not committed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no journal entries for submission %s", submissionID)
	}
	return nil
}

// GetOrphaned lists entries that never got committed to an order.
func (repository *JournalRepository) GetOrphaned(ctx context.Context, olderThan time.Time) ([]models.JournalEntry, error) {
	query := `SELECT submission_id::text, user_id, storage_key, artifact_class, state, order_id, created_at
		FROM upload_journal
		WHERE state <> $1 AND created_at < $2
		ORDER BY created_at`

	rows, err := repository.db.Pool.Query(ctx, query, string(models.JournalCommitted), olderThan)
	if err != nil {
		return nil, fmt.Errorf("journal entries were not loaded: %w", err)
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		var entry models.JournalEntry
		var class, state string
		err = rows.Scan(&entry.SubmissionID, &entry.UserID, &entry.StorageKey, &class, &state, &entry.OrderID, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("journal entry was not scanned: %w", err)
		}
		entry.ArtifactClass = models.ArtifactClass(class)
		entry.State = models.JournalState(state)
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
