package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Bessima/translation-orders/internal/clients/identity"
	"github.com/Bessima/translation-orders/internal/customerror"
	"github.com/Bessima/translation-orders/internal/handlers/schemas"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/Bessima/translation-orders/internal/session"
	"go.uber.org/zap"
)

const callbackPath = "/api/auth/callback"

type AuthHandler struct {
	issuer      identity.SessionIssuerI
	cookies     *session.CookieStore
	landingPage string
}

func NewAuthHandler(issuer identity.SessionIssuerI, cookies *session.CookieStore, landingPage string) *AuthHandler {
	return &AuthHandler{issuer: issuer, cookies: cookies, landingPage: landingPage}
}

func sessionResponse(state session.State, principal *models.Principal, pair *models.CredentialPair) schemas.SessionResponse {
	response := schemas.SessionResponse{State: state.String(), Principal: principal}
	if pair != nil && !pair.ExpiresAt.IsZero() {
		response.ExpiresAt = pair.ExpiresAt.Unix()
	}
	return response
}

func stateOf(principal *models.Principal) session.State {
	if principal.IsAnonymous {
		return session.Anonymous
	}
	return session.Authenticated
}

func issueError(err error) error {
	switch {
	case errors.Is(err, identity.ErrBadCredentials):
		return customerror.NewUnauthorizedError("Invalid credentials")
	case errors.Is(err, identity.ErrCodeRejected):
		return customerror.NewUnauthorizedError("Invalid or expired authorization code")
	default:
		return customerror.NewServerError("identity provider is unavailable", err)
	}
}

// AnonymousHandler establishes an anonymous session so the visitor can submit an order.
// A caller that already has a session keeps it.
func (h *AuthHandler) AnonymousHandler(w http.ResponseWriter, r *http.Request) {
	if current, ok := session.FromContext(r.Context()); ok && current.HasPrincipal() {
		writeJSON(w, http.StatusOK, sessionResponse(current.State, current.Principal, current.Refreshed))
		return
	}

	principal, pair, err := h.issuer.SignInAnonymously(r.Context())
	if err != nil {
		writeError(w, r, issueError(err))
		return
	}

	h.cookies.Write(w, pair)
	logger.Log.Info("anonymous session issued", zap.String("user_id", principal.UserID))
	writeJSON(w, http.StatusOK, sessionResponse(session.Anonymous, principal, pair))
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req schemas.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if provider := strings.TrimSpace(req.Provider); provider != "" {
		h.startOAuth(w, r, provider)
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "email is required"
	}
	if req.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		writeError(w, r, customerror.NewValidationError(fields))
		return
	}

	principal, pair, err := h.issuer.SignInWithPassword(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeError(w, r, issueError(err))
		return
	}

	h.cookies.Write(w, pair)
	writeJSON(w, http.StatusOK, sessionResponse(stateOf(principal), principal, pair))
}

func callbackURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + callbackPath
}

// startOAuth sends the browser to the provider. An anonymous caller is linked to the provider
// identity, so orders placed anonymously stay with the upgraded account.
func (h *AuthHandler) startOAuth(w http.ResponseWriter, r *http.Request, provider string) {
	if !identity.ValidProvider(provider) {
		writeError(w, r, customerror.NewValidationError(map[string]string{"provider": "unsupported provider"}))
		return
	}

	verifier, challenge, err := identity.NewPKCE()
	if err != nil {
		writeError(w, r, customerror.NewServerError("sign-in could not be started", err))
		return
	}

	request := identity.AuthorizeRequest{
		Provider:      provider,
		RedirectTo:    callbackURL(r),
		CodeChallenge: challenge,
	}
	if current, ok := session.FromContext(r.Context()); ok && current.State == session.Anonymous {
		request.LinkAccessToken, _ = h.cookies.Read(r)
		if current.Refreshed != nil {
			request.LinkAccessToken = current.Refreshed.AccessToken
		}
	}

	location, err := h.issuer.AuthorizeURL(r.Context(), request)
	if err != nil && request.LinkAccessToken != "" {
		// связать не удалось, входим обычным способом с новым пользователем
		logger.Log.Warn("anonymous identity linking unavailable", zap.String("provider", provider), zap.Error(err))
		request.LinkAccessToken = ""
		location, err = h.issuer.AuthorizeURL(r.Context(), request)
	}
	if err != nil {
		writeError(w, r, issueError(err))
		return
	}

	h.cookies.WriteCodeVerifier(w, verifier)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// CallbackHandler finishes the provider sign-in: the code and the stored verifier become a session.
func (h *AuthHandler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		if reason := query.Get("error_description"); reason != "" {
			logger.Log.Warn("provider sign-in failed", zap.String("error", query.Get("error")), zap.String("description", reason))
		}
		writeErrorMessage(w, http.StatusBadRequest, "No code provided")
		return
	}

	verifier := h.cookies.ReadCodeVerifier(r)
	h.cookies.ClearCodeVerifier(w)
	if verifier == "" {
		writeErrorMessage(w, http.StatusBadRequest, "sign-in flow has expired")
		return
	}

	principal, pair, err := h.issuer.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		writeError(w, r, issueError(err))
		return
	}

	h.cookies.Write(w, pair)
	logger.Log.Info("provider sign-in completed", zap.String("user_id", principal.UserID))
	http.Redirect(w, r, h.landingPage, http.StatusFound)
}

// LogoutHandler always clears both cookies; the provider-side logout is best effort.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	accessToken, _ := h.cookies.Read(r)
	if accessToken != "" {
		// клиент мог уже уйти, сессию у провайдера закрываем независимо от этого
		if err := h.issuer.SignOut(context.WithoutCancel(r.Context()), accessToken); err != nil {
			logger.Log.Warn("identity provider sign out failed", zap.Error(err))
		}
	}

	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *AuthHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	current, ok := session.FromContext(r.Context())
	if !ok || !current.HasPrincipal() {
		writeError(w, r, customerror.NewUnauthorizedError("authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(current.State, current.Principal, current.Refreshed))
}
