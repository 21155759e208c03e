package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Bessima/translation-orders/internal/clients/turnstile"
	"github.com/Bessima/translation-orders/internal/customerror"
	"github.com/Bessima/translation-orders/internal/metrics"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/Bessima/translation-orders/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Stage string

const (
	ValidatingInput Stage = "ValidatingInput"
	VerifyingHuman  Stage = "VerifyingHuman"
	UploadingFiles  Stage = "UploadingFiles"
	Persisting      Stage = "Persisting"
	Enriching       Stage = "Enriching"
	Done            Stage = "Done"
)

// StageError is the Failed(stage, reason) outcome of a submission.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type SubmissionService struct {
	verifier turnstile.VerifierI
	uploader UploaderI
	orders   repository.OrderStorageRepositoryI
	tracker  *ArtifactTracker
	enricher EnricherI
	tracer   trace.Tracer
	newID    func() string
}

func NewSubmissionService(
	verifier turnstile.VerifierI,
	uploader UploaderI,
	orders repository.OrderStorageRepositoryI,
	tracker *ArtifactTracker,
	enricher EnricherI,
) *SubmissionService {
	return &SubmissionService{
		verifier: verifier,
		uploader: uploader,
		orders:   orders,
		tracker:  tracker,
		enricher: enricher,
		tracer:   otel.Tracer("github.com/Bessima/translation-orders/internal/service/submission"),
		newID:    func() string { return uuid.NewString() },
	}
}

func (service *SubmissionService) fail(span trace.Span, submissionID string, stage Stage, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stage))
	metrics.SubmissionFailures.WithLabelValues(string(stage)).Inc()
	metrics.OrderSubmissions.WithLabelValues("failed").Inc()
	logger.Log.Info("order submission failed",
		zap.String("submission_id", submissionID),
		zap.String("stage", string(stage)),
		zap.Error(err),
	)
	return &StageError{Stage: stage, Err: err}
}

func mapTurnstileError(err error) error {
	var invalid *turnstile.InvalidTokenError
	switch {
	case errors.As(err, &invalid):
		return customerror.NewForbiddenError("human verification failed")
	case errors.Is(err, turnstile.ErrConfig):
		logger.Log.Error("turnstile is misconfigured", zap.Error(err))
		return customerror.NewServerError("human verification is unavailable", err)
	default:
		return customerror.NewServerError("human verification is unavailable", err)
	}
}

// Submit runs the whole pipeline for one request. The owner always comes from principal.
// A Persisting failure keeps the repository error class: a row-level security denial
// stays Forbidden, anything else is a server error. Uploaded files are reported as orphans either way.
func (service *SubmissionService) Submit(ctx context.Context, principal *models.Principal, input models.SubmissionInput) (*models.EnrichedOrder, error) {
	submissionID := service.newID()

	ctx, span := service.tracer.Start(ctx, "order.submit", trace.WithAttributes(attribute.String("submission.id", submissionID)))
	defer span.End()

	if principal == nil || principal.UserID == "" {
		return nil, service.fail(span, submissionID, ValidatingInput, customerror.NewUnauthorizedError("authentication required"))
	}
	span.SetAttributes(attribute.String("user.id", principal.UserID))

	// ValidatingInput
	pkg, err := input.Validate()
	if err != nil {
		return nil, service.fail(span, submissionID, ValidatingInput, err)
	}

	// VerifyingHuman: nothing is written before this succeeds
	stageCtx, stageSpan := service.tracer.Start(ctx, string(VerifyingHuman))
	err = service.verifier.Verify(stageCtx, input.CaptchaToken, input.RemoteIP)
	stageSpan.End()
	if err != nil {
		return nil, service.fail(span, submissionID, VerifyingHuman, mapTurnstileError(err))
	}

	// UploadingFiles
	stageCtx, stageSpan = service.tracer.Start(ctx, string(UploadingFiles))
	certificate := input.Certificate
	if !input.IsDisadvantaged {
		certificate = nil
	}
	report, err := service.uploader.Upload(stageCtx, principal.UserID, input.Documents, certificate)
	stageSpan.End()
	if report == nil {
		report = &UploadReport{}
	}
	service.tracker.Record(ctx, submissionID, principal.UserID, report.Uploaded, report.Uncertain)
	if err != nil {
		service.tracker.Orphaned(ctx, submissionID, principal.UserID, UploadingFiles, err, report.Uploaded, report.Uncertain)
		return nil, service.fail(span, submissionID, UploadingFiles, customerror.NewServerError("file upload failed", err))
	}

	// Persisting
	stageCtx, stageSpan = service.tracer.Start(ctx, string(Persisting))
	newOrder := models.NewOrder{
		UserID:            principal.UserID,
		OrdererName:       strings.TrimSpace(input.OrdererName),
		PackageTier:       pkg.Name,
		IsDisadvantaged:   input.IsDisadvantaged,
		IsSchool:          input.IsSchool,
		UploadedFilePaths: report.PrimaryKeys,
		CertificatePath:   report.CertificateKey,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		newOrder.Phone = &phone
	}
	order, err := service.orders.Create(stageCtx, newOrder)
	stageSpan.End()
	if err != nil {
		service.tracker.Orphaned(ctx, submissionID, principal.UserID, Persisting, err, report.Uploaded, nil)
		return nil, service.fail(span, submissionID, Persisting, err)
	}
	service.tracker.Commit(ctx, submissionID, order.ID)

	// Enriching
	stageCtx, stageSpan = service.tracer.Start(ctx, string(Enriching))
	enriched := service.enricher.Enrich(stageCtx, order)
	stageSpan.End()

	metrics.OrderSubmissions.WithLabelValues("created").Inc()
	logger.Log.Info("order created",
		zap.String("submission_id", submissionID),
		zap.Int64("order_id", order.ID),
		zap.Int("documents", len(report.PrimaryKeys)),
	)
	return enriched, nil
}
