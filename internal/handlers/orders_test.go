package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Bessima/translation-orders/internal/customerror"
	"github.com/Bessima/translation-orders/internal/handlers/schemas"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUploadLimit = 1 << 20

func newTestOrderHandler() (*OrdersHandler, *MockSubmitter, *MockOrderService) {
	submitter := new(MockSubmitter)
	orders := new(MockOrderService)
	return NewOrderHandler(submitter, orders, testUploadLimit), submitter, orders
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) schemas.ErrorResponse {
	t.Helper()
	var response schemas.ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	return response
}

func TestOrdersHandler_Create(t *testing.T) {
	handler, submitter, _ := newTestOrderHandler()

	request := multipartRequest(t, "/api/orders", map[string]string{
		"orderer_name":          "Anna Petrova",
		"phone":                 "+31 6 1234 5678",
		"package_tier_value":    "2",
		"is_disadvantaged":      "true",
		"is_school":             "off",
		"cf-turnstile-response": "widget-token",
	}, []formFile{
		{field: "files", filename: "passport.pdf", content: "passport"},
		{field: "files", filename: "diploma.pdf", content: "diploma"},
		{field: "certificate", filename: "cert.pdf", content: "certificate"},
	})
	request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	request = withPrincipal(request, applicant)

	var captured models.SubmissionInput
	submitter.On("Submit", mock.Anything, applicant, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(models.SubmissionInput)
		}).
		Return(&models.EnrichedOrder{Order: models.Order{ID: 21, Status: models.InitialStatus}}, nil)

	recorder := httptest.NewRecorder()
	handler.Create(recorder, request)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, float64(21), body["id"])
	assert.Equal(t, string(models.InitialStatus), body["status"])

	assert.Equal(t, "Anna Petrova", captured.OrdererName)
	assert.Equal(t, "+31 6 1234 5678", captured.Phone)
	assert.Equal(t, "2", captured.PackageIdentifier)
	assert.True(t, captured.IsDisadvantaged)
	assert.False(t, captured.IsSchool)
	assert.Equal(t, "widget-token", captured.CaptchaToken)
	assert.Equal(t, "203.0.113.7", captured.RemoteIP)
	require.Len(t, captured.Documents, 2)
	assert.Equal(t, "passport.pdf", captured.Documents[0].Filename)
	assert.Equal(t, int64(len("passport")), captured.Documents[0].Size)
	require.NotNil(t, captured.Certificate)
	assert.Equal(t, "cert.pdf", captured.Certificate.Filename)
}

func TestOrdersHandler_Create_FileContentIsReadable(t *testing.T) {
	handler, submitter, _ := newTestOrderHandler()

	request := multipartRequest(t, "/api/orders", map[string]string{"orderer_name": "Anna"},
		[]formFile{{field: "files", filename: "passport.pdf", content: "passport scan"}})
	request = withPrincipal(request, applicant)

	var content string
	submitter.On("Submit", mock.Anything, applicant, mock.Anything).
		Run(func(args mock.Arguments) {
			input := args.Get(2).(models.SubmissionInput)
			reader, err := input.Documents[0].Open()
			require.NoError(t, err)
			defer reader.Close()
			data, err := io.ReadAll(reader)
			require.NoError(t, err)
			content = string(data)
		}).
		Return(&models.EnrichedOrder{}, nil)

	handler.Create(httptest.NewRecorder(), request)

	assert.Equal(t, "passport scan", content)
}

func TestOrdersHandler_Create_Unauthenticated(t *testing.T) {
	handler, submitter, _ := newTestOrderHandler()

	request := multipartRequest(t, "/api/orders", map[string]string{"orderer_name": "Anna"}, nil)
	recorder := httptest.NewRecorder()
	handler.Create(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrdersHandler_Create_NotMultipart(t *testing.T) {
	handler, _, _ := newTestOrderHandler()

	request := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"orderer_name":"Anna"}`))
	request.Header.Set("Content-Type", "application/json")
	request = withPrincipal(request, applicant)

	recorder := httptest.NewRecorder()
	handler.Create(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestOrdersHandler_Create_ValidationFields(t *testing.T) {
	handler, submitter, _ := newTestOrderHandler()

	request := multipartRequest(t, "/api/orders", map[string]string{"orderer_name": ""}, nil)
	request = withPrincipal(request, applicant)

	submitter.On("Submit", mock.Anything, applicant, mock.Anything).
		Return(nil, customerror.NewValidationError(map[string]string{"files": "at least one non-empty document is required"}))

	recorder := httptest.NewRecorder()
	handler.Create(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	response := decodeError(t, recorder)
	assert.Equal(t, "validation failed", response.Error)
	assert.Contains(t, response.Fields, "files")
}

func TestOrdersHandler_Create_ServerErrorHidesCause(t *testing.T) {
	handler, submitter, _ := newTestOrderHandler()

	request := multipartRequest(t, "/api/orders", map[string]string{"orderer_name": "Anna"},
		[]formFile{{field: "files", filename: "a.pdf", content: "a"}})
	request = withPrincipal(request, applicant)

	submitter.On("Submit", mock.Anything, applicant, mock.Anything).
		Return(nil, customerror.NewServerError("file upload failed", io.ErrUnexpectedEOF))

	recorder := httptest.NewRecorder()
	handler.Create(recorder, request)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	response := decodeError(t, recorder)
	assert.Equal(t, "internal server error", response.Error)
}

func TestOrdersHandler_GetOrders(t *testing.T) {
	handler, _, orders := newTestOrderHandler()
	orders.On("ListForUser", mock.Anything, applicant).Return(nil, nil)

	recorder := httptest.NewRecorder()
	handler.GetOrders(recorder, withPrincipal(httptest.NewRequest(http.MethodGet, "/api/orders", nil), applicant))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `[]`, recorder.Body.String())
}

func TestOrdersHandler_GetOrder(t *testing.T) {
	tests := []struct {
		name       string
		orderID    string
		serviceErr error
		wantStatus int
	}{
		{name: "found", orderID: "7", wantStatus: http.StatusOK},
		{name: "not owned", orderID: "8", serviceErr: customerror.NewNotFoundError("order not found"), wantStatus: http.StatusNotFound},
		{name: "invalid id", orderID: "abc", wantStatus: http.StatusBadRequest},
		{name: "negative id", orderID: "-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, orders := newTestOrderHandler()
			if tt.serviceErr != nil {
				orders.On("GetForUser", mock.Anything, applicant, mock.Anything).Return(nil, tt.serviceErr)
			} else {
				orders.On("GetForUser", mock.Anything, applicant, mock.Anything).Return(&models.EnrichedOrder{Order: models.Order{ID: 7}}, nil)
			}

			request := withPrincipal(httptest.NewRequest(http.MethodGet, "/api/orders/"+tt.orderID, nil), applicant)
			request = withOrderID(request, tt.orderID)
			recorder := httptest.NewRecorder()
			handler.GetOrder(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

func TestOrdersHandler_ConfirmPackage(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		callsSvc   bool
	}{
		{name: "confirmed", body: `{"packageIdentifier":"premium"}`, wantStatus: http.StatusOK, callsSvc: true},
		{name: "wrong state", body: `{"packageIdentifier":"premium"}`, serviceErr: customerror.NewConflictError("order is not awaiting package confirmation"), wantStatus: http.StatusConflict, callsSvc: true},
		{name: "blank package", body: `{"packageIdentifier":"  "}`, wantStatus: http.StatusBadRequest},
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, orders := newTestOrderHandler()
			if tt.serviceErr != nil {
				orders.On("ConfirmPackage", mock.Anything, applicant, int64(3), "premium").Return(nil, tt.serviceErr)
			} else {
				orders.On("ConfirmPackage", mock.Anything, applicant, int64(3), "premium").
					Return(&models.EnrichedOrder{Order: models.Order{ID: 3, Status: models.PendingPaymentStatus}}, nil)
			}

			request := httptest.NewRequest(http.MethodPatch, "/api/orders/3", strings.NewReader(tt.body))
			request = withOrderID(withPrincipal(request, applicant), "3")
			recorder := httptest.NewRecorder()
			handler.ConfirmPackage(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.callsSvc {
				orders.AssertCalled(t, "ConfirmPackage", mock.Anything, applicant, int64(3), "premium")
			} else {
				orders.AssertNotCalled(t, "ConfirmPackage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
