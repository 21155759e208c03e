package schemas

import (
	"time"

	"github.com/Bessima/translation-orders/internal/models"
)

// ConfirmPackageRequest is the applicant's package choice.
type ConfirmPackageRequest struct {
	PackageIdentifier string `json:"packageIdentifier" validate:"required"`
}

// AdminOrderUpdateRequest: every field is optional, Force skips the status machine check.
type AdminOrderUpdateRequest struct {
	Status                *string    `json:"status"`
	PageCount             *int32     `json:"page_count"`
	TotalPrice            *int64     `json:"total_price"`
	PackageTier           *string    `json:"package_tier"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	TranslatedFilePath    *string    `json:"translated_file_path"`
	Force                 bool       `json:"force"`
}

func (req AdminOrderUpdateRequest) Patch() models.OrderPatch {
	patch := models.OrderPatch{
		PageCount:             req.PageCount,
		TotalPrice:            req.TotalPrice,
		PackageTier:           req.PackageTier,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		TranslatedFilePath:    req.TranslatedFilePath,
	}
	if req.Status != nil {
		status := models.OrderStatus(*req.Status)
		patch.Status = &status
	}
	return patch
}

type OrphanedArtifactsResponse struct {
	Entries []models.JournalEntry `json:"entries"`
}
