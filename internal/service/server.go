package service

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Bessima/translation-orders/internal/access"
	"github.com/Bessima/translation-orders/internal/clients/identity"
	"github.com/Bessima/translation-orders/internal/clients/orphans"
	"github.com/Bessima/translation-orders/internal/clients/storage"
	"github.com/Bessima/translation-orders/internal/clients/turnstile"
	"github.com/Bessima/translation-orders/internal/config/db"
	"github.com/Bessima/translation-orders/internal/handlers"
	middleware "github.com/Bessima/translation-orders/internal/middlewares"
	"github.com/Bessima/translation-orders/internal/middlewares/logger"
	"github.com/Bessima/translation-orders/internal/repository"
	"github.com/Bessima/translation-orders/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// identityProvider is the identity client as the router uses it: verification for the
// session gate, credential issuing for the auth endpoints.
type identityProvider interface {
	identity.VerifierI
	identity.SessionIssuerI
}

// Dependencies are the external collaborators built in main.
type Dependencies struct {
	Identity            identityProvider
	Captcha             turnstile.VerifierI
	Store               storage.ObjectStoreI
	Orphans             orphans.SinkI
	Policy              access.Policy
	CookieSecure        bool
	SignedURLTTLSeconds int
	MaxUploadBytes      int64
}

type ServerService struct {
	Server *http.Server
	db     *db.DB
}

func NewServerService(rootContext context.Context, address string, db *db.DB) ServerService {
	server := &http.Server{
		Addr:              address,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return rootContext
		},
	}
	return ServerService{Server: server, db: db}
}

func (serverService *ServerService) SetRouter(deps Dependencies) {
	serverService.Server.Handler = serverService.getRouter(deps)
}

func (serverService *ServerService) getRouter(deps Dependencies) chi.Router {
	router := chi.NewRouter()

	cookies := session.NewCookieStore(deps.CookieSecure)
	resolver := session.NewResolver(deps.Identity)
	authorizer := access.NewAuthorizer(deps.Policy)

	router.Use(logger.RequestLogger)
	router.Use(middleware.Instrument)

	healthHandler := handlers.NewHealthHandler(serverService.db)
	router.Get("/health", healthHandler.Health)
	router.Handle("/metrics", promhttp.Handler())

	orderRepository := repository.NewOrderRepository(serverService.db)
	journalRepository := repository.NewJournalRepository(serverService.db)

	uploader := NewUploadOrchestrator(deps.Store)
	enricher := NewEnricher(deps.Store, deps.SignedURLTTLSeconds)
	tracker := NewArtifactTracker(journalRepository, deps.Orphans)

	submissionService := NewSubmissionService(deps.Captcha, uploader, orderRepository, tracker, enricher)
	orderService := NewOrderService(orderRepository, enricher, uploader, tracker)

	authHandler := handlers.NewAuthHandler(deps.Identity, cookies, deps.Policy.LandingPage)
	orderHandler := handlers.NewOrderHandler(submissionService, orderService, deps.MaxUploadBytes)
	adminHandler := handlers.NewAdminHandler(orderService, deps.MaxUploadBytes)

	router.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(resolver, cookies, authorizer))

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/anonymous", authHandler.AnonymousHandler)
			r.Post("/signin", authHandler.LoginHandler)
			r.Post("/signout", authHandler.LogoutHandler)
			r.Get("/signout", authHandler.LogoutHandler)
			r.Get("/session", authHandler.SessionHandler)
			r.Get("/callback", authHandler.CallbackHandler)
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Create)
			r.Get("/", orderHandler.GetOrders)
			r.Get("/{orderID}", orderHandler.GetOrder)
			r.Patch("/{orderID}", orderHandler.ConfirmPackage)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/orders", adminHandler.GetOrders)
			r.Get("/orders/{orderID}", adminHandler.GetOrder)
			r.Patch("/orders/{orderID}", adminHandler.UpdateOrder)
			r.Post("/orders/{orderID}/upload", adminHandler.UploadTranslation)
			r.Get("/artifacts/pending", adminHandler.PendingArtifacts)
		})

		// страницы рендерит фронтенд, здесь только редиректы политики доступа
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
	})

	return router
}

func (serverService *ServerService) RunServer(serverErr chan<- error) {
	if err := serverService.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		serverErr <- err
	} else {
		serverErr <- nil
	}
}

func (serverService *ServerService) Shutdown() error {
	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if shutdownErr := serverService.Server.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	return nil
}
