package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/telemetry"
	"github.com/caarlos0/env"
	"go.uber.org/zap"
)

const (
	defaultSignedURLTTL   = 3600
	defaultMaxUploadBytes = 50 << 20
	defaultTurnstileURL   = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
)

var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	Address string `env:"RUN_ADDRESS"`

	DatabaseDNS string `env:"DATABASE_URI"`
	LogLevel    string `env:"LOG_LEVEL"`

	IdentityURL        string `env:"IDENTITY_URL"`
	IdentityAnonKey    string `env:"IDENTITY_ANON_KEY"`
	IdentityServiceKey string `env:"IDENTITY_SERVICE_KEY"`
	IdentityJWTSecret  string `env:"IDENTITY_JWT_SECRET"`

	TurnstileSecretKey string `env:"TURNSTILE_SECRET_KEY"`
	TurnstileVerifyURL string `env:"TURNSTILE_VERIFY_URL"`

	StorageURL          string `env:"STORAGE_URL"`
	StorageBucket       string `env:"STORAGE_BUCKET"`
	SignedURLTTLSeconds int    `env:"SIGNED_URL_TTL_SECONDS"`
	MaxUploadBytes      int64  `env:"MAX_UPLOAD_BYTES"`

	CookieSecure bool `env:"COOKIE_SECURE"`

	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaOrphanTopic string   `env:"KAFKA_ORPHAN_TOPIC"`

	// TraceExporter: "stdout" или пусто (трейсы выключены)
	TraceExporter string `env:"TRACE_EXPORTER"`
}

func InitConfig() *Config {
	flags := Flags{}
	flags.Init()

	cfg := Config{
		Address:             flags.address,
		DatabaseDNS:         flags.dbDNS,
		LogLevel:            flags.logLevel,
		StorageBucket:       flags.bucket,
		TurnstileVerifyURL:  defaultTurnstileURL,
		SignedURLTTLSeconds: defaultSignedURLTTL,
		MaxUploadBytes:      defaultMaxUploadBytes,
		KafkaOrphanTopic:    "orphaned-artifacts",
	}
	cfg.parseEnv()

	return &cfg
}

func (cfg *Config) parseEnv() {
	err := env.Parse(cfg)
	if err != nil {
		logger.Log.Warn("Getting an error while parsing the configuration", zap.String("err", err.Error()))
	}
}

// StorageEndpoint returns the object store base URL, derived from the identity
// provider URL when it is not configured explicitly.
func (cfg *Config) StorageEndpoint() string {
	if cfg.StorageURL != "" {
		return strings.TrimRight(cfg.StorageURL, "/")
	}
	return strings.TrimRight(cfg.IdentityURL, "/") + "/storage/v1"
}

// Validate reports every required key that is missing. Absence of any of them is fatal at boot.
func (cfg *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_URI", cfg.DatabaseDNS},
		{"IDENTITY_URL", cfg.IdentityURL},
		{"IDENTITY_ANON_KEY", cfg.IdentityAnonKey},
		{"IDENTITY_SERVICE_KEY", cfg.IdentityServiceKey},
		{"IDENTITY_JWT_SECRET", cfg.IdentityJWTSecret},
		{"TURNSTILE_SECRET_KEY", cfg.TurnstileSecretKey},
		{"STORAGE_BUCKET", cfg.StorageBucket},
	}

	var missing []string
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			missing = append(missing, item.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if cfg.SignedURLTTLSeconds <= 0 {
		return fmt.Errorf("SIGNED_URL_TTL_SECONDS must be positive, got %d", cfg.SignedURLTTLSeconds)
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	if !telemetry.ValidExporter(cfg.TraceExporter) {
		return fmt.Errorf("TRACE_EXPORTER %q is not supported", cfg.TraceExporter)
	}
	return nil
}
