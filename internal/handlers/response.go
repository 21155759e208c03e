package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/Bessima/translation-orders/internal/customerror"
	"github.com/Bessima/translation-orders/internal/handlers/schemas"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.Warn("Error encoding response", zap.Error(err))
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, schemas.ErrorResponse{Error: message})
}

// writeError maps err to the taxonomy; causes of server errors only go to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := customerror.HTTPCode(err)
	if status >= http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err),
		)
	}

	response := schemas.ErrorResponse{Error: customerror.PublicMessage(err)}
	var badRequest *customerror.BadRequestError
	if errors.As(err, &badRequest) && len(badRequest.Fields) > 0 {
		response.Fields = badRequest.Fields
	}
	writeJSON(w, status, response)
}

func orderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "orderID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, customerror.NewBadRequestError("invalid order id")
	}
	return id, nil
}

func asMaxBytesError(err error) *http.MaxBytesError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return tooLarge
	}
	return nil
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return ""
}
