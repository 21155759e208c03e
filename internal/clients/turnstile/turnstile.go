package turnstile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"go.uber.org/zap"
)

var (
	// ErrConfig is a deployment fault: the server secret is not set.
	ErrConfig = errors.New("turnstile secret key is not configured")
	// ErrUpstream covers network failures and non-2xx answers from the verification endpoint.
	ErrUpstream = errors.New("turnstile verification endpoint failed")
)

// InvalidTokenError means the endpoint answered and rejected the token.
type InvalidTokenError struct {
	Codes []string
}

func (e *InvalidTokenError) Error() string {
	if len(e.Codes) == 0 {
		return "turnstile token rejected"
	}
	return fmt.Sprintf("turnstile token rejected: %s", strings.Join(e.Codes, ", "))
}

type VerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname,omitempty"`
	Action     string   `json:"action,omitempty"`
}

type VerifierI interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type Client struct {
	httpClient *http.Client
	address    string
	secret     string
}

func NewClient(address, secret string) *Client {
	return &Client{address: address, secret: secret, httpClient: &http.Client{}}
}

// Verify performs a single round trip. It never retries.
func (client *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if client.secret == "" {
		return ErrConfig
	}
	if strings.TrimSpace(token) == "" {
		return &InvalidTokenError{Codes: []string{"missing-input-response"}}
	}

	form := url.Values{}
	form.Set("secret", client.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.address, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logger.Log.Warn("error closing turnstile response body", zap.Error(err))
		}
	}()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("%w: status code %d", ErrUpstream, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var answer VerifyResponse
	if err = json.Unmarshal(body, &answer); err != nil {
		return fmt.Errorf("%w: malformed answer: %v", ErrUpstream, err)
	}

	if !answer.Success {
		logger.Log.Info("turnstile rejected token", zap.Strings("error_codes", answer.ErrorCodes))
		return &InvalidTokenError{Codes: answer.ErrorCodes}
	}

	return nil
}
