package schemas

import "github.com/Bessima/translation-orders/internal/models"

// SignInRequest: либо email и password, либо provider для входа через OAuth
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Provider string `json:"provider,omitempty"`
}

type SessionResponse struct {
	State     string            `json:"state"`
	Principal *models.Principal `json:"user"`
	ExpiresAt int64             `json:"expires_at,omitempty"`
}
