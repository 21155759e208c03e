package service

import (
	"context"

	"github.com/Bessima/translation-orders/internal/clients/storage"
	"github.com/Bessima/translation-orders/internal/metrics"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/Bessima/translation-orders/internal/storagepath"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type EnricherI interface {
	Enrich(ctx context.Context, order *models.Order) *models.EnrichedOrder
}

type Enricher struct {
	store      storage.ObjectStoreI
	ttlSeconds int
}

func NewEnricher(store storage.ObjectStoreI, ttlSeconds int) *Enricher {
	return &Enricher{store: store, ttlSeconds: ttlSeconds}
}

// Enrich never fails: an artifact that cannot be signed gets a nil URL.
func (enricher *Enricher) Enrich(ctx context.Context, order *models.Order) *models.EnrichedOrder {
	if order == nil {
		return nil
	}

	enriched := &models.EnrichedOrder{
		Order:             *order,
		UploadedFilesInfo: make([]models.FileInfo, len(order.UploadedFilePaths)),
	}

	var g errgroup.Group
	for i, key := range order.UploadedFilePaths {
		g.Go(func() error {
			enriched.UploadedFilesInfo[i] = enricher.describe(ctx, order.ID, key)
			return nil
		})
	}
	if order.CertificatePath != nil && *order.CertificatePath != "" {
		g.Go(func() error {
			info := enricher.describe(ctx, order.ID, *order.CertificatePath)
			enriched.CertificateInfo = &info
			return nil
		})
	}
	if order.TranslatedFilePath != nil && *order.TranslatedFilePath != "" {
		g.Go(func() error {
			info := enricher.describe(ctx, order.ID, *order.TranslatedFilePath)
			enriched.TranslatedFileInfo = &info
			return nil
		})
	}
	_ = g.Wait()

	return enriched
}

func (enricher *Enricher) describe(ctx context.Context, orderID int64, key string) models.FileInfo {
	info := models.FileInfo{Path: key, Filename: storagepath.ExtractFilename(key)}

	signed, err := enricher.store.CreateSignedURL(ctx, key, enricher.ttlSeconds)
	if err != nil {
		metrics.SignedURLFailures.Inc()
		logger.Log.Warn("signed url was not created",
			zap.Int64("order_id", orderID),
			zap.String("storage_key", key),
			zap.Error(err),
		)
		return info
	}

	info.SignedURL = &signed
	return info
}
