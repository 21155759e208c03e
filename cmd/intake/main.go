package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bessima/translation-orders/internal/access"
	"github.com/Bessima/translation-orders/internal/clients/identity"
	"github.com/Bessima/translation-orders/internal/clients/orphans"
	"github.com/Bessima/translation-orders/internal/clients/storage"
	"github.com/Bessima/translation-orders/internal/clients/turnstile"
	"github.com/Bessima/translation-orders/internal/config"
	"github.com/Bessima/translation-orders/internal/config/db"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/service"
	"github.com/Bessima/translation-orders/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	conf := config.InitConfig()

	if err := logger.Initialize(conf.LogLevel); err != nil {
		logger.Log.Warn(err.Error())
	}
	defer func() {
		_ = logger.Log.Sync()
	}()

	if err := conf.Validate(); err != nil {
		logger.Log.Fatal("invalid configuration", zap.Error(err))
	}

	if err := run(conf); err != nil {
		logger.Log.Fatal("server stopped with error", zap.Error(err))
	}
}

func newOrphanSink(conf *config.Config) orphans.SinkI {
	if len(conf.KafkaBrokers) == 0 {
		return orphans.NopSink{}
	}
	sink, err := orphans.NewKafkaSink(conf.KafkaBrokers, conf.KafkaOrphanTopic)
	if err != nil {
		// отчёты о сиротах дублируются в лог, без Kafka сервис работает
		logger.Log.Error("kafka orphan sink disabled", zap.Error(err))
		return orphans.NopSink{}
	}
	logger.Log.Info("publishing orphan reports to kafka", zap.String("topic", conf.KafkaOrphanTopic))
	return sink
}

func run(conf *config.Config) error {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(conf.TraceExporter, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Log.Warn("tracer provider shutdown error", zap.Error(err))
		}
	}()

	database, err := db.NewDB(rootCtx, conf.DatabaseDNS)
	if err != nil {
		return err
	}
	defer database.Close()

	orphanSink := newOrphanSink(conf)
	defer orphanSink.Close()

	serverService := service.NewServerService(rootCtx, conf.Address, database)
	serverService.SetRouter(service.Dependencies{
		Identity:            identity.NewClient(conf.IdentityURL, conf.IdentityAnonKey, conf.IdentityJWTSecret),
		Captcha:             turnstile.NewClient(conf.TurnstileVerifyURL, conf.TurnstileSecretKey),
		Store:               storage.NewClient(conf.StorageEndpoint(), conf.StorageBucket, conf.IdentityServiceKey),
		Orphans:             orphanSink,
		Policy:              access.DefaultPolicy(),
		CookieSecure:        conf.CookieSecure,
		SignedURLTTLSeconds: conf.SignedURLTTLSeconds,
		MaxUploadBytes:      conf.MaxUploadBytes,
	})

	serverErr := make(chan error, 1)
	logger.Log.Info("Running Server on", zap.String("address", conf.Address))
	go serverService.RunServer(serverErr)

	// Ждем сигнал завершения или ошибку сервера
	select {
	case <-rootCtx.Done():
		logger.Log.Info("Received shutdown signal, shutting down.")
	case err = <-serverErr:
		if err != nil {
			logger.Log.Error("Server error", zap.Error(err))
		}
	}

	if shutdownErr := serverService.Shutdown(); shutdownErr != nil {
		logger.Log.Error("Server shutdown error", zap.Error(shutdownErr))
	}

	return err
}
