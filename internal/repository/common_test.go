package repository

import (
	"time"

	"github.com/Bessima/translation-orders/internal/config/db"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/pashagolub/pgxmock/v3"
)

func NewTestDB(pool db.PgxPoolInterface) *db.DB {
	return &db.DB{
		Pool: pool,
	}
}

var orderColumnNames = []string{
	"id", "user_id", "orderer_name", "phone", "package_tier", "page_count", "total_price",
	"is_disadvantaged", "is_school", "uploaded_file_paths", "certificate_path", "translated_file_path",
	"status", "created_at", "estimated_delivery_date",
}

func orderRows(order models.Order) *pgxmock.Rows {
	return pgxmock.NewRows(orderColumnNames).AddRow(
		order.ID,
		order.UserID,
		order.OrdererName,
		order.Phone,
		order.PackageTier,
		order.PageCount,
		order.TotalPrice,
		order.IsDisadvantaged,
		order.IsSchool,
		order.UploadedFilePaths,
		order.CertificatePath,
		order.TranslatedFilePath,
		string(order.Status),
		order.CreatedAt,
		order.EstimatedDeliveryDate,
	)
}

func testOrder() models.Order {
	return models.Order{
		ID:                1,
		UserID:            "user-1",
		OrdererName:       "Jane",
		UploadedFilePaths: []string{"user-1/originals/1-abc-a.pdf"},
		Status:            models.PendingPageCountStatus,
		CreatedAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
