package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Bessima/translation-orders/internal/customerror"
	"github.com/Bessima/translation-orders/internal/handlers/schemas"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/Bessima/translation-orders/internal/session"
	"go.uber.org/zap"
)

const (
	formOrdererName     = "orderer_name"
	formPhone           = "phone"
	formPackage         = "package_tier_value"
	formDisadvantaged   = "is_disadvantaged"
	formSchool          = "is_school"
	formTurnstileToken  = "turnstile_token"
	formTurnstileWidget = "cf-turnstile-response"
	formFiles           = "files"
	formCertificate     = "certificate"

	// память под части формы, остальное уходит во временные файлы
	multipartMemory = 8 << 20
)

type OrderSubmitterI interface {
	Submit(ctx context.Context, principal *models.Principal, input models.SubmissionInput) (*models.EnrichedOrder, error)
}

type ApplicantOrdersI interface {
	ListForUser(ctx context.Context, principal *models.Principal) ([]models.OrderSummary, error)
	GetForUser(ctx context.Context, principal *models.Principal, id int64) (*models.EnrichedOrder, error)
	ConfirmPackage(ctx context.Context, principal *models.Principal, id int64, packageIdentifier string) (*models.EnrichedOrder, error)
}

type OrdersHandler struct {
	submitter      OrderSubmitterI
	orders         ApplicantOrdersI
	maxUploadBytes int64
}

func NewOrderHandler(submitter OrderSubmitterI, orders ApplicantOrdersI, maxUploadBytes int64) *OrdersHandler {
	return &OrdersHandler{
		submitter:      submitter,
		orders:         orders,
		maxUploadBytes: maxUploadBytes,
	}
}

func principalOrReject(w http.ResponseWriter, r *http.Request) *models.Principal {
	principal := session.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, r, customerror.NewUnauthorizedError("authentication required"))
	}
	return principal
}

func fileUpload(header *multipart.FileHeader) models.FileUpload {
	return models.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

func formBool(form *multipart.Form, key string) bool {
	values := form.Value[key]
	if len(values) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(values[0])) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func formValue(form *multipart.Form, keys ...string) string {
	for _, key := range keys {
		if values := form.Value[key]; len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	return ""
}

// parseMultipart reads the whole form under the configured body limit.
func (h *OrdersHandler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLarge := asMaxBytesError(err); tooLarge != nil {
			return customerror.NewPayloadTooLargeError(tooLarge.Limit)
		}
		return customerror.NewBadRequestError("invalid multipart form")
	}
	return nil
}

func submissionFromForm(r *http.Request) models.SubmissionInput {
	form := r.MultipartForm
	input := models.SubmissionInput{
		OrdererName:       formValue(form, formOrdererName),
		Phone:             formValue(form, formPhone),
		PackageIdentifier: formValue(form, formPackage),
		IsDisadvantaged:   formBool(form, formDisadvantaged),
		IsSchool:          formBool(form, formSchool),
		CaptchaToken:      formValue(form, formTurnstileToken, formTurnstileWidget),
		RemoteIP:          clientIP(r),
	}
	for _, header := range form.File[formFiles] {
		input.Documents = append(input.Documents, fileUpload(header))
	}
	if headers := form.File[formCertificate]; len(headers) > 0 {
		certificate := fileUpload(headers[0])
		input.Certificate = &certificate
	}
	return input
}

// Create handles the order submission form.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := principalOrReject(w, r)
	if principal == nil {
		return
	}

	if err := h.parseMultipart(w, r); err != nil {
		writeError(w, r, err)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Log.Warn("multipart temp files were not removed", zap.Error(err))
		}
	}()

	order, err := h.submitter.Submit(r.Context(), principal, submissionFromForm(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	principal := principalOrReject(w, r)
	if principal == nil {
		return
	}

	orders, err := h.orders.ListForUser(r.Context(), principal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.OrderSummary{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	principal := principalOrReject(w, r)
	if principal == nil {
		return
	}
	id, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.GetForUser(r.Context(), principal, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ConfirmPackage applies the applicant's package choice to an order awaiting confirmation.
func (h *OrdersHandler) ConfirmPackage(w http.ResponseWriter, r *http.Request) {
	principal := principalOrReject(w, r)
	if principal == nil {
		return
	}
	id, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req schemas.ConfirmPackageRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.PackageIdentifier) == "" {
		writeError(w, r, customerror.NewValidationError(map[string]string{"packageIdentifier": "package is required"}))
		return
	}

	order, err := h.orders.ConfirmPackage(r.Context(), principal, id, req.PackageIdentifier)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
