package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/Bessima/translation-orders/internal/clients/orphans"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository - мок для OrderStorageRepositoryI
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order models.NewOrder) (*models.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIDForUser(ctx context.Context, id int64, userID string) (*models.Order, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetListByUserID(ctx context.Context, userID string) ([]models.OrderSummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.OrderSummary), args.Error(1)
}

func (m *MockOrderRepository) GetList(ctx context.Context) ([]models.OrderSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.OrderSummary), args.Error(1)
}

func (m *MockOrderRepository) ConfirmPackage(ctx context.Context, id int64, userID string, pkg models.Package, now time.Time) (*models.Order, error) {
	args := m.Called(ctx, id, userID, pkg, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) AdminUpdate(ctx context.Context, id int64, patch models.OrderPatch, force bool) (*models.Order, error) {
	args := m.Called(ctx, id, patch, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

// MockJournalRepository - мок для JournalRepositoryI
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) Record(ctx context.Context, entries []models.JournalEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockJournalRepository) MarkCommitted(ctx context.Context, submissionID string, orderID int64) error {
	args := m.Called(ctx, submissionID, orderID)
	return args.Error(0)
}

func (m *MockJournalRepository) GetOrphaned(ctx context.Context, olderThan time.Time) ([]models.JournalEntry, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JournalEntry), args.Error(1)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Publish(ctx context.Context, report orphans.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockSink) Close() {
	m.Called()
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) CreateSignedURL(ctx context.Context, key string, ttlSeconds int) (string, error) {
	args := m.Called(ctx, key, ttlSeconds)
	return args.String(0), args.Error(1)
}

type MockCaptcha struct {
	mock.Mock
}

func (m *MockCaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	args := m.Called(ctx, token, remoteIP)
	return args.Error(0)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, userID string, primaries []models.FileUpload, certificate *models.FileUpload) (*UploadReport, error) {
	args := m.Called(ctx, userID, primaries, certificate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UploadReport), args.Error(1)
}

func (m *MockUploader) UploadOne(ctx context.Context, userID string, file models.FileUpload, class models.ArtifactClass, orderID int64) (Artifact, error) {
	args := m.Called(ctx, userID, file, class, orderID)
	return args.Get(0).(Artifact), args.Error(1)
}

type MockEnricher struct {
	mock.Mock
}

func (m *MockEnricher) Enrich(ctx context.Context, order *models.Order) *models.EnrichedOrder {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.EnrichedOrder)
}

func testFile(name, content string) models.FileUpload {
	return models.FileUpload{
		Filename:    name,
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func keyEndsWith(suffix string) interface{} {
	return mock.MatchedBy(func(key string) bool {
		return strings.HasSuffix(key, suffix)
	})
}

func stringPtr(s string) *string {
	return &s
}
