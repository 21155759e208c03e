package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken    = errors.New("invalid access token")
	ErrRefreshRejected = errors.New("refresh token rejected")
	ErrBadCredentials  = errors.New("invalid login credentials")
	ErrUpstream        = errors.New("identity provider request failed")
)

// VerifierI is what the session resolver needs from the identity provider.
type VerifierI interface {
	Verify(ctx context.Context, accessToken string) (*models.Principal, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*models.Principal, *models.CredentialPair, error)
}

type SessionIssuerI interface {
	SignInAnonymously(ctx context.Context) (*models.Principal, *models.CredentialPair, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Principal, *models.CredentialPair, error)
	SignOut(ctx context.Context, accessToken string) error
	OAuthIssuerI
}

type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    float64 `json:"expires_in"`
	ExpiresAt    int64   `json:"expires_at"`
}

type Client struct {
	httpClient *http.Client
	address    string
	anonKey    string
	jwtSecret  []byte
	now        func() time.Time
}

func NewClient(address, anonKey, jwtSecret string) *Client {
	return &Client{
		address:    strings.TrimRight(address, "/"),
		anonKey:    anonKey,
		jwtSecret:  []byte(jwtSecret),
		httpClient: &http.Client{},
		now:        time.Now,
	}
}

// Verify checks the access token signature and expiry locally and returns the principal it carries.
func (client *Client) Verify(_ context.Context, accessToken string) (*models.Principal, error) {
	claims, err := client.parse(accessToken)
	if err != nil {
		return nil, err
	}
	principal := claims.Principal()
	return &principal, nil
}

func (client *Client) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	if len(client.jwtSecret) == 0 {
		return nil, fmt.Errorf("%w: jwt secret is not configured", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return client.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return claims, nil
}

// Refresh exchanges the refresh token for a new pair. The stale access token is not sent upstream.
func (client *Client) Refresh(ctx context.Context, _ string, refreshToken string) (*models.Principal, *models.CredentialPair, error) {
	if refreshToken == "" {
		return nil, nil, ErrRefreshRejected
	}
	payload := map[string]string{"refresh_token": refreshToken}
	return client.issue(ctx, "/auth/v1/token?grant_type=refresh_token", payload, ErrRefreshRejected)
}

func (client *Client) SignInAnonymously(ctx context.Context) (*models.Principal, *models.CredentialPair, error) {
	payload := map[string]interface{}{"data": map[string]string{}}
	return client.issue(ctx, "/auth/v1/signup", payload, ErrUpstream)
}

func (client *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Principal, *models.CredentialPair, error) {
	payload := map[string]string{"email": email, "password": password}
	return client.issue(ctx, "/auth/v1/token?grant_type=password", payload, ErrBadCredentials)
}

// SignOut revokes the session upstream. Callers clear cookies regardless of the result.
func (client *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	response, err := client.post(ctx, "/auth/v1/logout", nil, accessToken)
	if err != nil {
		return err
	}
	defer closeBody(response)

	if response.StatusCode >= 300 && response.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("%w: logout status code %d", ErrUpstream, response.StatusCode)
	}
	return nil
}

// issue posts to a token-issuing endpoint. A 4xx answer is reported as rejectedErr, anything else as ErrUpstream.
func (client *Client) issue(ctx context.Context, path string, payload interface{}, rejectedErr error) (*models.Principal, *models.CredentialPair, error) {
	response, err := client.post(ctx, path, payload, "")
	if err != nil {
		return nil, nil, err
	}
	defer closeBody(response)

	if response.StatusCode >= 400 && response.StatusCode < 500 {
		return nil, nil, fmt.Errorf("%w: status code %d", rejectedErr, response.StatusCode)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("%w: status code %d", ErrUpstream, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var answer tokenResponse
	if err = json.Unmarshal(body, &answer); err != nil {
		logger.Log.Error("Error unmarshalling identity provider answer", zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if answer.AccessToken == "" || answer.RefreshToken == "" {
		return nil, nil, fmt.Errorf("%w: answer without session", ErrUpstream)
	}

	claims, err := client.parse(answer.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	pair := &models.CredentialPair{
		AccessToken:  answer.AccessToken,
		RefreshToken: answer.RefreshToken,
		ExpiresIn:    answer.ExpiresIn,
	}
	switch {
	case answer.ExpiresAt > 0:
		pair.ExpiresAt = time.Unix(answer.ExpiresAt, 0)
	case answer.ExpiresIn > 0:
		pair.ExpiresAt = client.now().Add(time.Duration(answer.ExpiresIn * float64(time.Second)))
	case claims.ExpiresAt != nil:
		pair.ExpiresAt = claims.ExpiresAt.Time
	}

	principal := claims.Principal()
	return &principal, pair, nil
}

func (client *Client) post(ctx context.Context, path string, payload interface{}, bearer string) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.address+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("apikey", client.anonKey)
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, path, err)
	}
	return response, nil
}

func closeBody(response *http.Response) {
	if err := response.Body.Close(); err != nil {
		logger.Log.Warn("error closing identity response body", zap.Error(err))
	}
}
