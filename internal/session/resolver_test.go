package session

import (
	"context"
	"errors"
	"testing"

	"github.com/Bessima/translation-orders/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, accessToken string) (*models.Principal, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

func (m *MockVerifier) Refresh(ctx context.Context, accessToken, refreshToken string) (*models.Principal, *models.CredentialPair, error) {
	args := m.Called(ctx, accessToken, refreshToken)
	var principal *models.Principal
	var pair *models.CredentialPair
	if args.Get(0) != nil {
		principal = args.Get(0).(*models.Principal)
	}
	if args.Get(1) != nil {
		pair = args.Get(1).(*models.CredentialPair)
	}
	return principal, pair, args.Error(2)
}

func TestResolver_NoCredentials(t *testing.T) {
	verifier := new(MockVerifier)
	resolver := NewResolver(verifier)

	result := resolver.Resolve(context.Background(), "", "")

	assert.Equal(t, Unauthenticated, result.State)
	assert.Nil(t, result.Principal)
	assert.False(t, result.ShouldClear)
	assert.Nil(t, result.Refreshed)
	verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	verifier.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_RefreshOnlyIsCleared(t *testing.T) {
	verifier := new(MockVerifier)
	resolver := NewResolver(verifier)

	result := resolver.Resolve(context.Background(), "", "refresh")

	assert.Equal(t, Unauthenticated, result.State)
	assert.True(t, result.ShouldClear)
	verifier.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_ValidAccess(t *testing.T) {
	verifier := new(MockVerifier)
	resolver := NewResolver(verifier)
	principal := &models.Principal{UserID: "user-1"}

	verifier.On("Verify", mock.Anything, "access").Return(principal, nil)

	result := resolver.Resolve(context.Background(), "access", "refresh")

	assert.Equal(t, Authenticated, result.State)
	assert.Equal(t, principal, result.Principal)
	assert.Nil(t, result.Refreshed)
	assert.False(t, result.ShouldClear)
	verifier.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_AnonymousPrincipal(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("Verify", mock.Anything, "access").Return(&models.Principal{UserID: "anon", IsAnonymous: true}, nil)

	result := NewResolver(verifier).Resolve(context.Background(), "access", "")

	assert.Equal(t, Anonymous, result.State)
	assert.True(t, result.HasPrincipal())
}

func TestResolver_ExpiredAccessRefreshes(t *testing.T) {
	verifier := new(MockVerifier)
	resolver := NewResolver(verifier)
	principal := &models.Principal{UserID: "user-1"}
	pair := &models.CredentialPair{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 3600}

	verifier.On("Verify", mock.Anything, "expired").Return(nil, errors.New("token is expired"))
	verifier.On("Refresh", mock.Anything, "expired", "refresh").Return(principal, pair, nil).Once()

	result := resolver.Resolve(context.Background(), "expired", "refresh")

	assert.Equal(t, Authenticated, result.State)
	assert.Equal(t, principal, result.Principal)
	assert.Equal(t, pair, result.Refreshed)
	assert.False(t, result.ShouldClear)
	verifier.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestResolver_RefreshFailureClears(t *testing.T) {
	verifier := new(MockVerifier)
	resolver := NewResolver(verifier)

	verifier.On("Verify", mock.Anything, "expired").Return(nil, errors.New("token is expired"))
	verifier.On("Refresh", mock.Anything, "expired", "refresh").Return(nil, nil, errors.New("invalid_grant")).Once()

	result := resolver.Resolve(context.Background(), "expired", "refresh")

	assert.Equal(t, Unauthenticated, result.State)
	assert.Nil(t, result.Principal)
	assert.True(t, result.ShouldClear)
	verifier.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestResolver_InvalidAccessWithoutRefresh(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("Verify", mock.Anything, "bad").Return(nil, errors.New("signature is invalid"))

	result := NewResolver(verifier).Resolve(context.Background(), "bad", "")

	assert.Equal(t, Unauthenticated, result.State)
	assert.True(t, result.ShouldClear)
	verifier.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything, mock.Anything)
}

func TestContext_RoundTrip(t *testing.T) {
	principal := &models.Principal{UserID: "user-1"}
	ctx := WithResult(context.Background(), Result{State: Authenticated, Principal: principal})

	assert.Equal(t, principal, PrincipalFromContext(ctx))
	assert.Nil(t, PrincipalFromContext(context.Background()))
	assert.Nil(t, PrincipalFromContext(WithResult(context.Background(), Result{State: Unauthenticated})))
}
