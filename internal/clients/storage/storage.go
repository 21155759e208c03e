package storage

import (
	"bytes"
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
	ErrObjectNotFound = errors.New("object not found")
	ErrUpload         = errors.New("object upload failed")
	ErrSign           = errors.New("signed url generation failed")
)

type ObjectStoreI interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	CreateSignedURL(ctx context.Context, key string, ttlSeconds int) (string, error)
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

type Client struct {
	httpClient *http.Client
	address    string
	bucket     string
	serviceKey string
}

func NewClient(address, bucket, serviceKey string) *Client {
	return &Client{
		address:    strings.TrimRight(address, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: &http.Client{},
	}
}

func (client *Client) Bucket() string {
	return client.bucket
}

// objectPath escapes every segment of the key separately so that slashes keep partitioning the bucket.
func objectPath(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func (client *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+client.serviceKey)
	request.Header.Set("apikey", client.serviceKey)
	return request, nil
}

func closeBody(response *http.Response) {
	if err := response.Body.Close(); err != nil {
		logger.Log.Warn("error closing storage response body", zap.Error(err))
	}
}

// Upload stores body under key. Existing objects are never overwritten.
func (client *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	endpoint := fmt.Sprintf("%s/object/%s/%s", client.address, url.PathEscape(client.bucket), objectPath(key))

	request, err := client.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("x-upsert", "false")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpload, key, err)
	}
	defer closeBody(response)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		message, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("%w: %s: status code %d: %s", ErrUpload, key, response.StatusCode, strings.TrimSpace(string(message)))
	}

	return nil
}

func (client *Client) CreateSignedURL(ctx context.Context, key string, ttlSeconds int) (string, error) {
	endpoint := fmt.Sprintf("%s/object/sign/%s/%s", client.address, url.PathEscape(client.bucket), objectPath(key))

	payload, err := json.Marshal(signRequest{ExpiresIn: ttlSeconds})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSign, err)
	}

	request, err := client.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSign, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSign, key, err)
	}
	defer closeBody(response)

	if response.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s: status code %d", ErrSign, key, response.StatusCode)
	}

	var answer signResponse
	if err = json.NewDecoder(response.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSign, key, err)
	}
	if answer.SignedURL == "" {
		return "", fmt.Errorf("%w: %s: empty signed url", ErrSign, key)
	}

	if strings.HasPrefix(answer.SignedURL, "http://") || strings.HasPrefix(answer.SignedURL, "https://") {
		return answer.SignedURL, nil
	}
	return client.address + "/" + strings.TrimLeft(answer.SignedURL, "/"), nil
}
