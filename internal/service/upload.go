package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Bessima/translation-orders/internal/clients/storage"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/Bessima/translation-orders/internal/storagepath"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxParallelUploads = 4

type Artifact struct {
	Key      string               `json:"storage_key"`
	Class    models.ArtifactClass `json:"artifact_class"`
	Filename string               `json:"filename"`
}

// UploadReport says exactly which artifacts exist after an upload attempt.
type UploadReport struct {
	// Uploaded were confirmed by the object store.
	Uploaded []Artifact
	// Uncertain were in flight when the batch was aborted and may or may not exist.
	Uncertain []Artifact
	// PrimaryKeys and CertificateKey are filled only when every upload succeeded.
	PrimaryKeys    []string
	CertificateKey *string
}

func (report *UploadReport) Keys() []string {
	keys := make([]string, 0, len(report.Uploaded)+len(report.Uncertain))
	for _, artifact := range report.Uploaded {
		keys = append(keys, artifact.Key)
	}
	for _, artifact := range report.Uncertain {
		keys = append(keys, artifact.Key)
	}
	return keys
}

type uploadState int

const (
	uploadPending uploadState = iota
	uploadDone
	uploadFailed
	uploadUncertain
)

type UploaderI interface {
	Upload(ctx context.Context, userID string, primaries []models.FileUpload, certificate *models.FileUpload) (*UploadReport, error)
	UploadOne(ctx context.Context, userID string, file models.FileUpload, class models.ArtifactClass, orderID int64) (Artifact, error)
}

type UploadOrchestrator struct {
	store storage.ObjectStoreI
	now   func() time.Time
}

func NewUploadOrchestrator(store storage.ObjectStoreI) *UploadOrchestrator {
	return &UploadOrchestrator{store: store, now: time.Now}
}

func (orchestrator *UploadOrchestrator) artifact(userID string, file models.FileUpload, class models.ArtifactClass, orderID int64) (Artifact, error) {
	key, err := storagepath.Generate(storagepath.Options{
		UserID:    userID,
		Filename:  file.Filename,
		Class:     class,
		OrderID:   orderID,
		Timestamp: orchestrator.now(),
	})
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Key: key, Class: class, Filename: file.Filename}, nil
}

func (orchestrator *UploadOrchestrator) put(ctx context.Context, key string, file models.FileUpload) error {
	if file.Open == nil {
		return fmt.Errorf("file %q has no content", file.Filename)
	}
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", file.Filename, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Log.Warn("error closing uploaded file", zap.String("filename", file.Filename), zap.Error(err))
		}
	}()

	return orchestrator.store.Upload(ctx, key, reader, file.ContentType)
}

// Upload sends the primary documents concurrently, then the certificate. The first failure
// cancels the rest; nothing already stored is removed.
func (orchestrator *UploadOrchestrator) Upload(ctx context.Context, userID string, primaries []models.FileUpload, certificate *models.FileUpload) (*UploadReport, error) {
	report := &UploadReport{}
	if len(primaries) == 0 {
		return report, errors.New("no primary documents to upload")
	}

	artifacts := make([]Artifact, len(primaries))
	for i, file := range primaries {
		artifact, err := orchestrator.artifact(userID, file, models.OriginalArtifact, 0)
		if err != nil {
			return report, err
		}
		artifacts[i] = artifact
	}

	states := make([]uploadState, len(primaries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i := range primaries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			err := orchestrator.put(gctx, artifacts[i].Key, primaries[i])

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				states[i] = uploadDone
			case gctx.Err() != nil:
				// aborted by another failure while the request was on the wire
				states[i] = uploadUncertain
			default:
				states[i] = uploadFailed
			}
			return err
		})
	}
	uploadErr := g.Wait()

	for i, state := range states {
		switch state {
		case uploadDone:
			report.Uploaded = append(report.Uploaded, artifacts[i])
		case uploadUncertain:
			report.Uncertain = append(report.Uncertain, artifacts[i])
		}
	}
	if uploadErr != nil {
		return report, fmt.Errorf("primary document upload failed: %w", uploadErr)
	}

	report.PrimaryKeys = make([]string, len(artifacts))
	for i, artifact := range artifacts {
		report.PrimaryKeys[i] = artifact.Key
	}

	if certificate == nil {
		return report, nil
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	artifact, err := orchestrator.artifact(userID, *certificate, models.CertificateArtifact, 0)
	if err != nil {
		return report, err
	}
	if err = orchestrator.put(ctx, artifact.Key, *certificate); err != nil {
		if ctx.Err() != nil {
			report.Uncertain = append(report.Uncertain, artifact)
		}
		return report, fmt.Errorf("certificate upload failed: %w", err)
	}
	report.Uploaded = append(report.Uploaded, artifact)
	report.CertificateKey = &artifact.Key

	return report, nil
}

// UploadOne stores a single artifact, used for translated files.
func (orchestrator *UploadOrchestrator) UploadOne(ctx context.Context, userID string, file models.FileUpload, class models.ArtifactClass, orderID int64) (Artifact, error) {
	artifact, err := orchestrator.artifact(userID, file, class, orderID)
	if err != nil {
		return Artifact{}, err
	}
	if err = orchestrator.put(ctx, artifact.Key, file); err != nil {
		return artifact, err
	}
	return artifact, nil
}
