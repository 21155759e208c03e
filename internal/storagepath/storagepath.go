// Package storagepath names artifacts in the object store.
//
// Keys are partitioned by owner and artifact class:
//
//	{user}/originals/{ms}-{suffix}-{name}
//	{user}/certificates/{ms}-cert-{suffix}-{name}
//	{user}/translations/order_{id}-{ms}-{suffix}-{name}
package storagepath

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/Bessima/translation-orders/internal/models"
)

const (
	maxFilenameLength = 100
	suffixLength      = 6
	suffixAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	fallbackFilename  = "untitled"
)

var (
	ErrMissingOwner    = errors.New("storage path requires user id and filename")
	ErrMissingOrderID  = errors.New("storage path for a translation requires an order id")
	ErrUnknownArtifact = errors.New("unknown artifact class")
)

type Options struct {
	UserID   string
	Filename string
	Class    models.ArtifactClass
	OrderID  int64
	// Timestamp defaults to time.Now().
	Timestamp time.Time
}

func Generate(opts Options) (string, error) {
	if strings.TrimSpace(opts.UserID) == "" || opts.Filename == "" {
		return "", ErrMissingOwner
	}

	timestamp := opts.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	ms := timestamp.UnixMilli()

	suffix, err := RandomSuffix(suffixLength)
	if err != nil {
		return "", err
	}

	owner := Sanitize(opts.UserID)
	name := Sanitize(opts.Filename)

	switch opts.Class {
	case models.OriginalArtifact:
		return fmt.Sprintf("%s/originals/%d-%s-%s", owner, ms, suffix, name), nil
	case models.CertificateArtifact:
		return fmt.Sprintf("%s/certificates/%d-cert-%s-%s", owner, ms, suffix, name), nil
	case models.TranslationArtifact:
		if opts.OrderID <= 0 {
			return "", ErrMissingOrderID
		}
		return fmt.Sprintf("%s/translations/order_%d-%d-%s-%s", owner, opts.OrderID, ms, suffix, name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownArtifact, opts.Class)
	}
}

func isUnsafe(r rune) bool {
	if unicode.IsSpace(r) || unicode.IsControl(r) {
		return true
	}
	return strings.ContainsRune(`<>:"/\|?*`, r)
}

// Sanitize replaces runs of whitespace, control and path characters with a single
// underscore, trims leading/trailing underscores and dots, and caps the length at
// 100 characters, keeping a short extension when there is one.
func Sanitize(filename string) string {
	var b strings.Builder
	inRun := false
	for _, r := range filename {
		if isUnsafe(r) {
			if !inRun {
				b.WriteRune('_')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}

	sanitized := strings.Trim(b.String(), "_.")

	runes := []rune(sanitized)
	if len(runes) > maxFilenameLength {
		dot := strings.LastIndex(sanitized, ".")
		if dot > 0 && len(sanitized)-dot < 10 {
			ext := []rune(sanitized[dot:])
			name := []rune(sanitized[:dot])
			keep := maxFilenameLength - len(ext)
			if keep < 0 {
				keep = 0
			}
			if keep > len(name) {
				keep = len(name)
			}
			sanitized = string(name[:keep]) + string(ext)
		} else {
			sanitized = string(runes[:maxFilenameLength])
		}
	}

	if sanitized == "" {
		return fallbackFilename
	}
	return sanitized
}

// ExtractFilename returns the last segment of a storage key.
func ExtractFilename(key string) string {
	if key == "" {
		return ""
	}
	decoded, err := url.PathUnescape(key)
	if err != nil {
		decoded = key
	}
	if idx := strings.LastIndex(decoded, "/"); idx >= 0 && idx < len(decoded)-1 {
		return decoded[idx+1:]
	}
	return decoded
}

func RandomSuffix(length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(suffixAlphabet)))
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate random suffix: %w", err)
		}
		result[i] = suffixAlphabet[n.Int64()]
	}
	return string(result), nil
}
