package service

import (
	"context"
	"time"

	"github.com/Bessima/translation-orders/internal/clients/orphans"
	"github.com/Bessima/translation-orders/internal/metrics"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/Bessima/translation-orders/internal/repository"
	"go.uber.org/zap"
)

// ArtifactTracker keeps the saga log of what a request wrote to the object store.
// Its writes outlive the request context: a client disconnect must not lose the record.
type ArtifactTracker struct {
	journal repository.JournalRepositoryI
	sink    orphans.SinkI
}

func NewArtifactTracker(journal repository.JournalRepositoryI, sink orphans.SinkI) *ArtifactTracker {
	if sink == nil {
		sink = orphans.NopSink{}
	}
	return &ArtifactTracker{journal: journal, sink: sink}
}

func artifactKeys(artifacts []Artifact) []string {
	keys := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		keys = append(keys, artifact.Key)
	}
	return keys
}

// Record journals confirmed and uncertain artifacts before the next stage starts.
func (tracker *ArtifactTracker) Record(ctx context.Context, submissionID, userID string, uploaded, uncertain []Artifact) {
	entries := make([]models.JournalEntry, 0, len(uploaded)+len(uncertain))
	for _, artifact := range uploaded {
		entries = append(entries, models.JournalEntry{
			SubmissionID:  submissionID,
			UserID:        userID,
			StorageKey:    artifact.Key,
			ArtifactClass: artifact.Class,
			State:         models.JournalUploaded,
		})
	}
	for _, artifact := range uncertain {
		entries = append(entries, models.JournalEntry{
			SubmissionID:  submissionID,
			UserID:        userID,
			StorageKey:    artifact.Key,
			ArtifactClass: artifact.Class,
			State:         models.JournalUncertain,
		})
	}
	if len(entries) == 0 {
		return
	}

	if err := tracker.journal.Record(context.WithoutCancel(ctx), entries); err != nil {
		logger.Log.Error("upload journal was not written",
			zap.String("submission_id", submissionID),
			zap.Strings("storage_keys", append(artifactKeys(uploaded), artifactKeys(uncertain)...)),
			zap.Error(err),
		)
	}
}

func (tracker *ArtifactTracker) Commit(ctx context.Context, submissionID string, orderID int64) {
	if err := tracker.journal.MarkCommitted(context.WithoutCancel(ctx), submissionID, orderID); err != nil {
		logger.Log.Error("upload journal was not committed",
			zap.String("submission_id", submissionID),
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
	}
}

// Orphaned logs and publishes artifacts left behind by a failed stage. Nothing is deleted.
func (tracker *ArtifactTracker) Orphaned(ctx context.Context, submissionID, userID string, stage Stage, reason error, uploaded, uncertain []Artifact) {
	if len(uploaded) == 0 && len(uncertain) == 0 {
		return
	}

	metrics.OrphanedArtifacts.Add(float64(len(uploaded) + len(uncertain)))

	reasonText := ""
	if reason != nil {
		reasonText = reason.Error()
	}
	logger.Log.Warn("orphaned artifacts left in object store",
		zap.String("submission_id", submissionID),
		zap.String("user_id", userID),
		zap.String("stage", string(stage)),
		zap.Strings("storage_keys", artifactKeys(uploaded)),
		zap.Strings("uncertain_keys", artifactKeys(uncertain)),
		zap.String("reason", reasonText),
	)

	report := orphans.Report{
		SubmissionID: submissionID,
		UserID:       userID,
		Stage:        string(stage),
		Reason:       reasonText,
		StorageKeys:  artifactKeys(uploaded),
		Uncertain:    artifactKeys(uncertain),
		OccurredAt:   time.Now().UTC(),
	}
	if err := tracker.sink.Publish(context.WithoutCancel(ctx), report); err != nil {
		logger.Log.Error("orphan report was not published", zap.String("submission_id", submissionID), zap.Error(err))
	}
}

func (tracker *ArtifactTracker) Pending(ctx context.Context, olderThan time.Time) ([]models.JournalEntry, error) {
	return tracker.journal.GetOrphaned(ctx, olderThan)
}
