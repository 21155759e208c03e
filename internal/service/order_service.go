package service

import (
	"context"
	"time"

	"github.com/Bessima/translation-orders/internal/customerror"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/Bessima/translation-orders/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderService struct {
	repository repository.OrderStorageRepositoryI
	enricher   EnricherI
	uploader   UploaderI
	tracker    *ArtifactTracker
	now        func() time.Time
}

func NewOrderService(rep repository.OrderStorageRepositoryI, enricher EnricherI, uploader UploaderI, tracker *ArtifactTracker) *OrderService {
	return &OrderService{
		repository: rep,
		enricher:   enricher,
		uploader:   uploader,
		tracker:    tracker,
		now:        time.Now,
	}
}

func (service *OrderService) ListForUser(ctx context.Context, principal *models.Principal) ([]models.OrderSummary, error) {
	return service.repository.GetListByUserID(ctx, principal.UserID)
}

func (service *OrderService) GetForUser(ctx context.Context, principal *models.Principal, id int64) (*models.EnrichedOrder, error) {
	order, err := service.repository.GetByIDForUser(ctx, id, principal.UserID)
	if err != nil {
		return nil, err
	}
	return service.enricher.Enrich(ctx, order), nil
}

// ConfirmPackage is the applicant's own action; it is valid only in Pending Package Confirmation
// with a page count already set by an operator.
func (service *OrderService) ConfirmPackage(ctx context.Context, principal *models.Principal, id int64, packageIdentifier string) (*models.EnrichedOrder, error) {
	pkg, ok := models.FindPackage(packageIdentifier)
	if !ok {
		return nil, customerror.NewValidationError(map[string]string{"packageIdentifier": "unknown package"})
	}

	order, err := service.repository.ConfirmPackage(ctx, id, principal.UserID, pkg, service.now())
	if err != nil {
		return nil, err
	}

	logger.Log.Info("package confirmed",
		zap.Int64("order_id", order.ID),
		zap.String("package", pkg.Name),
		zap.Int64p("total_price", order.TotalPrice),
	)
	return service.enricher.Enrich(ctx, order), nil
}

func (service *OrderService) ListAll(ctx context.Context) ([]models.OrderSummary, error) {
	return service.repository.GetList(ctx)
}

func (service *OrderService) GetForAdmin(ctx context.Context, id int64) (*models.EnrichedOrder, error) {
	order, err := service.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return service.enricher.Enrich(ctx, order), nil
}

func (service *OrderService) AdminUpdate(ctx context.Context, id int64, patch models.OrderPatch, force bool) (*models.EnrichedOrder, error) {
	fields := make(map[string]string)
	if patch.Status != nil && !patch.Status.IsValid() {
		fields["status"] = "unknown status"
	}
	if patch.PageCount != nil && *patch.PageCount <= 0 {
		fields["page_count"] = "page count must be positive"
	}
	if patch.TotalPrice != nil && *patch.TotalPrice < 0 {
		fields["total_price"] = "total price must not be negative"
	}
	if patch.PackageTier != nil {
		if pkg, ok := models.FindPackage(*patch.PackageTier); ok {
			patch.PackageTier = &pkg.Name
		} else {
			fields["package_tier"] = "unknown package"
		}
	}
	if len(fields) > 0 {
		return nil, customerror.NewValidationError(fields)
	}

	order, err := service.repository.AdminUpdate(ctx, id, patch, force)
	if err != nil {
		return nil, err
	}

	if force {
		logger.Log.Warn("order updated with admin override", zap.Int64("order_id", id), zap.String("status", string(order.Status)))
	}
	return service.enricher.Enrich(ctx, order), nil
}

// UploadTranslation stores the translated file under the owner's namespace and links it to the order.
func (service *OrderService) UploadTranslation(ctx context.Context, id int64, file models.FileUpload) (*models.EnrichedOrder, error) {
	if !file.HasContent() {
		return nil, customerror.NewValidationError(map[string]string{"translated_file": "file is required"})
	}

	order, err := service.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	submissionID := uuid.NewString()
	artifact, err := service.uploader.UploadOne(ctx, order.UserID, file, models.TranslationArtifact, order.ID)
	if err != nil {
		if ctx.Err() != nil && artifact.Key != "" {
			service.tracker.Record(ctx, submissionID, order.UserID, nil, []Artifact{artifact})
			service.tracker.Orphaned(ctx, submissionID, order.UserID, UploadingFiles, err, nil, []Artifact{artifact})
		}
		return nil, customerror.NewServerError("translated file upload failed", err)
	}
	service.tracker.Record(ctx, submissionID, order.UserID, []Artifact{artifact}, nil)

	updated, err := service.repository.AdminUpdate(ctx, id, models.OrderPatch{TranslatedFilePath: &artifact.Key}, false)
	if err != nil {
		service.tracker.Orphaned(ctx, submissionID, order.UserID, Persisting, err, []Artifact{artifact}, nil)
		return nil, err
	}
	service.tracker.Commit(ctx, submissionID, updated.ID)

	return service.enricher.Enrich(ctx, updated), nil
}

// PendingArtifacts lists journal entries never committed to an order, for manual reconciliation.
func (service *OrderService) PendingArtifacts(ctx context.Context, olderThan time.Duration) ([]models.JournalEntry, error) {
	entries, err := service.tracker.Pending(ctx, service.now().Add(-olderThan))
	if err != nil {
		return nil, customerror.NewServerError("journal was not loaded", err)
	}
	return entries, nil
}
