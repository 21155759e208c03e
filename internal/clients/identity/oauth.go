package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/Bessima/translation-orders/internal/models"
)

var (
	ErrUnknownProvider = errors.New("unsupported oauth provider")
	ErrCodeRejected    = errors.New("authorization code rejected")
	ErrLinkRejected    = errors.New("identity linking rejected")
)

var providerPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)

// OAuthIssuerI drives the PKCE authorization-code sign-in.
type OAuthIssuerI interface {
	AuthorizeURL(ctx context.Context, request AuthorizeRequest) (string, error)
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*models.Principal, *models.CredentialPair, error)
}

type AuthorizeRequest struct {
	Provider      string
	RedirectTo    string
	CodeChallenge string
	// LinkAccessToken is the anonymous caller's access token. When set, the provider identity
	// is attached to that user instead of creating a new one.
	LinkAccessToken string
}

type authorizeAnswer struct {
	URL string `json:"url"`
}

// NewPKCE returns a code verifier and its S256 challenge.
func NewPKCE() (verifier, challenge string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("code verifier was not generated: %w", err)
	}
	verifier = base64.RawURLEncoding.EncodeToString(buf)
	return verifier, CodeChallenge(verifier), nil
}

func CodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func ValidProvider(provider string) bool {
	return providerPattern.MatchString(provider)
}

func (request AuthorizeRequest) query(linking bool) url.Values {
	values := url.Values{}
	values.Set("provider", request.Provider)
	values.Set("redirect_to", request.RedirectTo)
	values.Set("code_challenge", request.CodeChallenge)
	values.Set("code_challenge_method", "s256")
	if linking {
		values.Set("skip_http_redirect", "true")
	}
	return values
}

// AuthorizeURL returns where to send the browser. A plain sign-in URL is built locally;
// linking asks the provider, which checks the anonymous caller's token.
func (client *Client) AuthorizeURL(ctx context.Context, request AuthorizeRequest) (string, error) {
	if !ValidProvider(request.Provider) {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, request.Provider)
	}
	if request.LinkAccessToken == "" {
		return client.address + "/auth/v1/authorize?" + request.query(false).Encode(), nil
	}

	endpoint := client.address + "/auth/v1/user/identities/authorize?" + request.query(true).Encode()
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	httpRequest.Header.Set("apikey", client.anonKey)
	httpRequest.Header.Set("Authorization", "Bearer "+request.LinkAccessToken)

	response, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return "", fmt.Errorf("%w: identities/authorize: %v", ErrUpstream, err)
	}
	defer closeBody(response)

	if response.StatusCode >= 400 && response.StatusCode < 500 {
		return "", fmt.Errorf("%w: status code %d", ErrLinkRejected, response.StatusCode)
	}
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status code %d", ErrUpstream, response.StatusCode)
	}

	var answer authorizeAnswer
	if err = json.NewDecoder(response.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if answer.URL == "" {
		return "", fmt.Errorf("%w: answer without url", ErrUpstream)
	}
	return answer.URL, nil
}

// ExchangeCode trades the callback code and the stored verifier for a session.
func (client *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*models.Principal, *models.CredentialPair, error) {
	if code == "" || codeVerifier == "" {
		return nil, nil, ErrCodeRejected
	}
	payload := map[string]string{"auth_code": code, "code_verifier": codeVerifier}
	return client.issue(ctx, "/auth/v1/token?grant_type=pkce", payload, ErrCodeRejected)
}
