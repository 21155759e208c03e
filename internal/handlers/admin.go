package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Bessima/translation-orders/internal/customerror"
	"github.com/Bessima/translation-orders/internal/handlers/schemas"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"go.uber.org/zap"
)

const (
	formTranslatedFile     = "translated_file"
	defaultPendingInterval = time.Hour
)

type AdminOrdersI interface {
	ListAll(ctx context.Context) ([]models.OrderSummary, error)
	GetForAdmin(ctx context.Context, id int64) (*models.EnrichedOrder, error)
	AdminUpdate(ctx context.Context, id int64, patch models.OrderPatch, force bool) (*models.EnrichedOrder, error)
	UploadTranslation(ctx context.Context, id int64, file models.FileUpload) (*models.EnrichedOrder, error)
	PendingArtifacts(ctx context.Context, olderThan time.Duration) ([]models.JournalEntry, error)
}

// AdminHandler serves operator endpoints. The session gate has already checked the admin role.
type AdminHandler struct {
	orders         AdminOrdersI
	maxUploadBytes int64
}

func NewAdminHandler(orders AdminOrdersI, maxUploadBytes int64) *AdminHandler {
	return &AdminHandler{orders: orders, maxUploadBytes: maxUploadBytes}
}

func (h *AdminHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.OrderSummary{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.GetForAdmin(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req schemas.AdminOrderUpdateRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch := req.Patch()
	if patch.IsEmpty() {
		writeError(w, r, customerror.NewBadRequestError("nothing to update"))
		return
	}

	order, err := h.orders.AdminUpdate(r.Context(), id, patch, req.Force)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UploadTranslation accepts the translated document as multipart field translated_file.
func (h *AdminHandler) UploadTranslation(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile(formTranslatedFile)
	if err != nil {
		if tooLarge := asMaxBytesError(err); tooLarge != nil {
			writeError(w, r, customerror.NewPayloadTooLargeError(tooLarge.Limit))
			return
		}
		writeError(w, r, customerror.NewValidationError(map[string]string{formTranslatedFile: "file is required"}))
		return
	}
	// нужен только заголовок, содержимое откроется заново при загрузке
	if err = file.Close(); err != nil {
		logger.Log.Warn("error closing form file", zap.Error(err))
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Log.Warn("multipart temp files were not removed", zap.Error(err))
		}
	}()

	order, err := h.orders.UploadTranslation(r.Context(), id, fileUpload(header))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// PendingArtifacts lists journaled uploads never linked to an order, older_than defaults to one hour.
func (h *AdminHandler) PendingArtifacts(w http.ResponseWriter, r *http.Request) {
	olderThan := defaultPendingInterval
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < 0 {
			writeError(w, r, customerror.NewBadRequestError("older_than must be a non-negative duration"))
			return
		}
		olderThan = parsed
	}

	entries, err := h.orders.PendingArtifacts(r.Context(), olderThan)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, schemas.OrphanedArtifactsResponse{Entries: entries})
}
