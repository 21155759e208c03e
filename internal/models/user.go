package models

import "time"

// Principal is the identity resolved for a single request. It is never persisted.
type Principal struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// CredentialPair holds the opaque tokens issued by the identity provider.
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the provider's stated access-token lifetime in seconds, zero if unknown.
	ExpiresIn float64
	ExpiresAt time.Time
}

type ArtifactClass string

const (
	OriginalArtifact    ArtifactClass = "original"
	CertificateArtifact ArtifactClass = "certificate"
	TranslationArtifact ArtifactClass = "translation"
)
