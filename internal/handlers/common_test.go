package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Bessima/translation-orders/internal/clients/identity"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/Bessima/translation-orders/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, principal *models.Principal, input models.SubmissionInput) (*models.EnrichedOrder, error) {
	args := m.Called(ctx, principal, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EnrichedOrder), args.Error(1)
}

// MockOrderService реализует и пользовательский, и админский интерфейсы
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) enriched(args mock.Arguments) (*models.EnrichedOrder, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EnrichedOrder), args.Error(1)
}

func (m *MockOrderService) ListForUser(ctx context.Context, principal *models.Principal) ([]models.OrderSummary, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderSummary), args.Error(1)
}

func (m *MockOrderService) GetForUser(ctx context.Context, principal *models.Principal, id int64) (*models.EnrichedOrder, error) {
	return m.enriched(m.Called(ctx, principal, id))
}

func (m *MockOrderService) ConfirmPackage(ctx context.Context, principal *models.Principal, id int64, packageIdentifier string) (*models.EnrichedOrder, error) {
	return m.enriched(m.Called(ctx, principal, id, packageIdentifier))
}

func (m *MockOrderService) ListAll(ctx context.Context) ([]models.OrderSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderSummary), args.Error(1)
}

func (m *MockOrderService) GetForAdmin(ctx context.Context, id int64) (*models.EnrichedOrder, error) {
	return m.enriched(m.Called(ctx, id))
}

func (m *MockOrderService) AdminUpdate(ctx context.Context, id int64, patch models.OrderPatch, force bool) (*models.EnrichedOrder, error) {
	return m.enriched(m.Called(ctx, id, patch, force))
}

func (m *MockOrderService) UploadTranslation(ctx context.Context, id int64, file models.FileUpload) (*models.EnrichedOrder, error) {
	return m.enriched(m.Called(ctx, id, file))
}

func (m *MockOrderService) PendingArtifacts(ctx context.Context, olderThan time.Duration) ([]models.JournalEntry, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JournalEntry), args.Error(1)
}

type MockSessionIssuer struct {
	mock.Mock
}

func (m *MockSessionIssuer) SignInAnonymously(ctx context.Context) (*models.Principal, *models.CredentialPair, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Principal), args.Get(1).(*models.CredentialPair), args.Error(2)
}

func (m *MockSessionIssuer) SignInWithPassword(ctx context.Context, email, password string) (*models.Principal, *models.CredentialPair, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Principal), args.Get(1).(*models.CredentialPair), args.Error(2)
}

func (m *MockSessionIssuer) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockSessionIssuer) AuthorizeURL(ctx context.Context, request identity.AuthorizeRequest) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func (m *MockSessionIssuer) ExchangeCode(ctx context.Context, code, codeVerifier string) (*models.Principal, *models.CredentialPair, error) {
	args := m.Called(ctx, code, codeVerifier)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Principal), args.Get(1).(*models.CredentialPair), args.Error(2)
}

var (
	applicant = &models.Principal{UserID: "user-1", IsAnonymous: true}
	operator  = &models.Principal{UserID: "admin-1", Email: "ops@example.com", IsAdmin: true}
)

func withPrincipal(r *http.Request, principal *models.Principal) *http.Request {
	state := session.Authenticated
	if principal.IsAnonymous {
		state = session.Anonymous
	}
	return r.WithContext(session.WithResult(r.Context(), session.Result{State: state, Principal: principal}))
}

func withOrderID(r *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderID", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

type formFile struct {
	field    string
	filename string
	content  string
}

func multipartRequest(t *testing.T, target string, values map[string]string, files []formFile) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range values {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.field, file.filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(file.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPost, target, body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}
