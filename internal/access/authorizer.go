package access

import (
	"net/http"

	"github.com/Bessima/translation-orders/internal/models"
)

type Action int

const (
	Allow Action = iota
	Redirect
	Reject
)

func (a Action) String() string {
	switch a {
	case Redirect:
		return "redirect"
	case Reject:
		return "reject"
	default:
		return "allow"
	}
}

type Decision struct {
	Action     Action
	Target     string
	StatusCode int
	Class      PathClass
}

type Authorizer struct {
	policy Policy
}

func NewAuthorizer(policy Policy) *Authorizer {
	return &Authorizer{policy: policy}
}

func (a *Authorizer) Policy() Policy {
	return a.policy
}

func allow(class PathClass) Decision {
	return Decision{Action: Allow, Class: class}
}

func redirect(class PathClass, target string) Decision {
	return Decision{Action: Redirect, Target: target, Class: class}
}

func reject(class PathClass, status int) Decision {
	return Decision{Action: Reject, StatusCode: status, Class: class}
}

// Authorize decides what happens to a request for path. A nil principal means no session.
func (a *Authorizer) Authorize(path string, principal *models.Principal) Decision {
	class := a.policy.Classify(path)

	switch class {
	case AdminPage, AdminAPI:
		if principal != nil && principal.IsAdmin {
			return allow(class)
		}
		if principal == nil || principal.IsAnonymous {
			if class.isAPI() {
				return reject(class, http.StatusUnauthorized)
			}
			return redirect(class, a.policy.SignInPage)
		}
		if class.isAPI() {
			return reject(class, http.StatusForbidden)
		}
		return redirect(class, a.policy.SafePage)

	case ProtectedPage, ProtectedAPI:
		if principal != nil {
			return allow(class)
		}
		if class.isAPI() {
			return reject(class, http.StatusUnauthorized)
		}
		return redirect(class, a.policy.SignInPage)

	case AuthRedirect:
		// anonymous visitors stay on sign-in pages to upgrade the session, see AuthHandler.startOAuth linking
		if principal != nil && !principal.IsAdmin && !principal.IsAnonymous {
			return redirect(class, a.policy.LandingPage)
		}
		return allow(class)
	}

	return allow(class)
}
