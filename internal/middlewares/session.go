package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Bessima/translation-orders/internal/access"
	"github.com/Bessima/translation-orders/internal/handlers/schemas"
	"github.com/Bessima/translation-orders/internal/metrics"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/Bessima/translation-orders/internal/session"
	"go.uber.org/zap"
)

type SessionResolverI interface {
	Resolve(ctx context.Context, accessToken, refreshToken string) session.Result
}

// SessionMiddleware resolves the caller once per request, persists the resolver's cookie
// side effects, then applies the route policy before any handler runs.
func SessionMiddleware(resolver SessionResolverI, cookies *session.CookieStore, authorizer *access.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, refreshToken := cookies.Read(r)
			result := resolver.Resolve(r.Context(), accessToken, refreshToken)
			metrics.SessionResolutions.WithLabelValues(result.State.String()).Inc()

			switch {
			case result.Refreshed != nil:
				cookies.Write(w, result.Refreshed)
			case result.ShouldClear:
				cookies.Clear(w)
			}

			var principal *models.Principal
			if result.HasPrincipal() {
				principal = result.Principal
			}
			decision := authorizer.Authorize(r.URL.Path, principal)
			metrics.RouteDecisions.WithLabelValues(decision.Action.String()).Inc()

			switch decision.Action {
			case access.Redirect:
				http.Redirect(w, r, decision.Target, http.StatusFound)
				return
			case access.Reject:
				logger.Log.Debug("request rejected by route policy",
					zap.String("path", r.URL.Path),
					zap.String("class", decision.Class.String()),
					zap.Int("status", decision.StatusCode),
				)
				writeRejection(w, decision.StatusCode)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithResult(r.Context(), result)))
		})
	}
}

func writeRejection(w http.ResponseWriter, status int) {
	message := "authentication required"
	if status == http.StatusForbidden {
		message = "access denied"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(schemas.ErrorResponse{Error: message}); err != nil {
		logger.Log.Warn("Error encoding response", zap.Error(err))
	}
}
