package session

import (
	"context"

	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/models"
	"go.uber.org/zap"
)

type State int

const (
	Unauthenticated State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Result is the outcome of resolving one request's credentials.
// Side effects are described, not applied: the caller writes Refreshed or clears cookies exactly once.
type Result struct {
	State     State
	Principal *models.Principal
	// Refreshed is set when a refresh produced a new pair that must be persisted.
	Refreshed   *models.CredentialPair
	ShouldClear bool
}

func (r Result) HasPrincipal() bool {
	return r.Principal != nil && r.State != Unauthenticated
}

// IdentityVerifier is the part of the identity provider the resolver depends on.
type IdentityVerifier interface {
	Verify(ctx context.Context, accessToken string) (*models.Principal, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*models.Principal, *models.CredentialPair, error)
}

type Resolver struct {
	verifier IdentityVerifier
}

func NewResolver(verifier IdentityVerifier) *Resolver {
	return &Resolver{verifier: verifier}
}

func resolved(principal *models.Principal, refreshed *models.CredentialPair) Result {
	state := Authenticated
	if principal.IsAnonymous {
		state = Anonymous
	}
	return Result{State: state, Principal: principal, Refreshed: refreshed}
}

// Resolve decides who is calling. Refresh is attempted at most once and only after Verify has failed.
func (resolver *Resolver) Resolve(ctx context.Context, accessToken, refreshToken string) Result {
	if accessToken == "" {
		if refreshToken == "" {
			return Result{State: Unauthenticated}
		}
		// refresh-only state is never trusted
		logger.Log.Debug("refresh credential without access credential, clearing session")
		return Result{State: Unauthenticated, ShouldClear: true}
	}

	principal, err := resolver.verifier.Verify(ctx, accessToken)
	if err == nil && principal != nil {
		return resolved(principal, nil)
	}
	logger.Log.Debug("access credential rejected", zap.Error(err))

	if refreshToken == "" {
		return Result{State: Unauthenticated, ShouldClear: true}
	}

	principal, pair, err := resolver.verifier.Refresh(ctx, accessToken, refreshToken)
	if err != nil || principal == nil || pair == nil {
		logger.Log.Info("session refresh failed, clearing session", zap.Error(err))
		return Result{State: Unauthenticated, ShouldClear: true}
	}

	return resolved(principal, pair)
}
