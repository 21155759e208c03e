package identity

import (
	"strings"

	"github.com/Bessima/translation-orders/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

const adminRole = "admin"

type AppMetadata struct {
	Provider string `json:"provider,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Claims is the typed view of an access token issued by the identity provider.
type Claims struct {
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	IsAnonymous bool        `json:"is_anonymous"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// IsAdmin grants the admin capability only on an explicit app_metadata role.
// A missing or unrecognised claim means non-admin, and anonymous sessions are never admins.
func (c *Claims) IsAdmin() bool {
	if c.IsAnonymous {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(c.AppMetadata.Role), adminRole)
}

func (c *Claims) Principal() models.Principal {
	return models.Principal{
		UserID:      c.Subject,
		Email:       c.Email,
		IsAdmin:     c.IsAdmin(),
		IsAnonymous: c.IsAnonymous,
	}
}
