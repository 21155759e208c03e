package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPKCE(t *testing.T) {
	verifier, challenge, err := NewPKCE()

	require.NoError(t, err)
	assert.Len(t, verifier, 43)
	assert.Equal(t, CodeChallenge(verifier), challenge)
	assert.NotContains(t, challenge, "=")

	// RFC 7636, appendix B
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		CodeChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"))
}

func TestClient_AuthorizeURL_SignIn(t *testing.T) {
	client := NewClient("https://id.example.com/", "anon", testSecret)

	location, err := client.AuthorizeURL(context.Background(), AuthorizeRequest{
		Provider:      "google",
		RedirectTo:    "https://intake.example.com/api/auth/callback",
		CodeChallenge: "challenge",
	})

	require.NoError(t, err)
	parsed, err := url.Parse(location)
	require.NoError(t, err)
	assert.Equal(t, "id.example.com", parsed.Host)
	assert.Equal(t, "/auth/v1/authorize", parsed.Path)
	assert.Equal(t, "google", parsed.Query().Get("provider"))
	assert.Equal(t, "https://intake.example.com/api/auth/callback", parsed.Query().Get("redirect_to"))
	assert.Equal(t, "challenge", parsed.Query().Get("code_challenge"))
	assert.Equal(t, "s256", parsed.Query().Get("code_challenge_method"))
}

func TestClient_AuthorizeURL_UnknownProvider(t *testing.T) {
	client := NewClient("https://id.example.com", "anon", testSecret)

	for _, provider := range []string{"", "Google", "evil.com/x", "a"} {
		_, err := client.AuthorizeURL(context.Background(), AuthorizeRequest{Provider: provider})
		assert.ErrorIs(t, err, ErrUnknownProvider, provider)
	}
}

func TestClient_AuthorizeURL_LinksAnonymousUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/v1/user/identities/authorize", r.URL.Path)
		assert.Equal(t, "Bearer anon-access", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("skip_http_redirect"))
		assert.Equal(t, "github", r.URL.Query().Get("provider"))
		_ = json.NewEncoder(w).Encode(authorizeAnswer{URL: "https://github.com/login/oauth/authorize?state=s"})
	}))
	defer server.Close()

	location, err := NewClient(server.URL, "anon", testSecret).AuthorizeURL(context.Background(), AuthorizeRequest{
		Provider:        "github",
		RedirectTo:      "http://localhost/api/auth/callback",
		CodeChallenge:   "challenge",
		LinkAccessToken: "anon-access",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://github.com/login/oauth/authorize?state=s", location)
}

func TestClient_AuthorizeURL_LinkFailures(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		expected error
	}{
		{name: "token rejected", status: http.StatusUnauthorized, expected: ErrLinkRejected},
		{name: "provider down", status: http.StatusBadGateway, expected: ErrUpstream},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "anon", testSecret).AuthorizeURL(context.Background(), AuthorizeRequest{
				Provider:        "google",
				LinkAccessToken: "anon-access",
			})

			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestClient_ExchangeCode(t *testing.T) {
	access := signToken(t, validClaims("user-9", time.Hour), testSecret)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "pkce", r.URL.Query().Get("grant_type"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "code-1", payload["auth_code"])
		assert.Equal(t, "verifier-1", payload["code_verifier"])

		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: access, RefreshToken: "refresh-9", ExpiresIn: 3600})
	}))
	defer server.Close()

	principal, pair, err := NewClient(server.URL, "anon", testSecret).ExchangeCode(context.Background(), "code-1", "verifier-1")

	require.NoError(t, err)
	assert.Equal(t, "user-9", principal.UserID)
	assert.False(t, principal.IsAnonymous)
	assert.Equal(t, "refresh-9", pair.RefreshToken)
}

func TestClient_ExchangeCode_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, "anon", testSecret)

	_, _, err := client.ExchangeCode(context.Background(), "expired", "verifier")
	assert.ErrorIs(t, err, ErrCodeRejected)

	_, _, err = client.ExchangeCode(context.Background(), "code", "")
	assert.ErrorIs(t, err, ErrCodeRejected)
}
