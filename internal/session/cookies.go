package session

import (
	"math"
	"net/http"

	"github.com/Bessima/translation-orders/internal/models"
)

const (
	AccessCookieName       = "sb-access-token"
	RefreshCookieName      = "sb-refresh-token"
	CodeVerifierCookieName = "sb-code-verifier"

	defaultAccessMaxAge = 3600
	refreshMaxAge       = 7 * 24 * 60 * 60
	codeVerifierMaxAge  = 10 * 60
	codeVerifierPath    = "/api/auth"
)

// CookieStore reads and writes the credential pair as cookies. It holds no business logic.
type CookieStore struct {
	Secure bool
}

func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{Secure: secure}
}

// Read returns the raw cookie values; a missing cookie yields an empty string.
func (store *CookieStore) Read(r *http.Request) (accessToken, refreshToken string) {
	if cookie, err := r.Cookie(AccessCookieName); err == nil {
		accessToken = cookie.Value
	}
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		refreshToken = cookie.Value
	}
	return accessToken, refreshToken
}

func (store *CookieStore) Write(w http.ResponseWriter, pair *models.CredentialPair) {
	if pair == nil {
		return
	}
	http.SetCookie(w, store.cookie(AccessCookieName, pair.AccessToken, AccessMaxAge(pair.ExpiresIn)))
	http.SetCookie(w, store.cookie(RefreshCookieName, pair.RefreshToken, refreshMaxAge))
}

func (store *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, store.cookie(AccessCookieName, "", -1))
	http.SetCookie(w, store.cookie(RefreshCookieName, "", -1))
}

// WriteCodeVerifier keeps the PKCE verifier until the provider redirects back to the callback.
func (store *CookieStore) WriteCodeVerifier(w http.ResponseWriter, verifier string) {
	cookie := store.cookie(CodeVerifierCookieName, verifier, codeVerifierMaxAge)
	cookie.Path = codeVerifierPath
	http.SetCookie(w, cookie)
}

func (store *CookieStore) ReadCodeVerifier(r *http.Request) string {
	cookie, err := r.Cookie(CodeVerifierCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (store *CookieStore) ClearCodeVerifier(w http.ResponseWriter) {
	cookie := store.cookie(CodeVerifierCookieName, "", -1)
	cookie.Path = codeVerifierPath
	http.SetCookie(w, cookie)
}

func (store *CookieStore) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   store.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// AccessMaxAge mirrors the provider's token lifetime, floored to whole seconds, 3600 when unknown.
func AccessMaxAge(expiresIn float64) int {
	if expiresIn <= 0 || math.IsNaN(expiresIn) || math.IsInf(expiresIn, 0) {
		return defaultAccessMaxAge
	}
	seconds := int(math.Floor(expiresIn))
	if seconds <= 0 {
		return defaultAccessMaxAge
	}
	return seconds
}
