package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/ratelimit"
)

const (
	healthRouteConstant = "/healthz"
	auditRouteConstant  = "/audit"
	reportRouteConstant = "/report"

	serverStartingMessageConstant = "starting server"
	shutdownMessageConstant       = "shutdown initiated"
	shutdownFailedMessageConstant = "graceful shutdown failed"
	addressLogFieldConstant       = "address"
)

// WebAPI hosts the audit routes.
type WebAPI struct {
	router          *chi.Mux
	logger          *zap.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

// Config wires a WebAPI.
type Config struct {
	Address         string
	APIKey          string
	Bucket          *ratelimit.TokenBucket
	ShutdownTimeout time.Duration
	Handler         *Handler
}

// NewWebAPI constructs a WebAPI with its routes and middleware.
func NewWebAPI(logger *zap.Logger, config Config) *WebAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := config.Handler
	if handler == nil {
		handler = NewHandler(HandlerDependencies{Logger: logger})
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaultShutdownTimeoutConstant
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Get(healthRouteConstant, handler.Health)
	router.Group(func(protected chi.Router) {
		protected.Use(RequireAPIKey(config.APIKey))
		protected.Use(Throttle(config.Bucket))
		protected.Post(auditRouteConstant, handler.RunAudit)
		protected.Get(reportRouteConstant, handler.GetReport)
	})

	return &WebAPI{
		router: router,
		logger: logger,
		server: &http.Server{
			Addr:              config.Address,
			Handler:           router,
			ReadHeaderTimeout: config.ShutdownTimeout,
		},
		shutdownTimeout: config.ShutdownTimeout,
	}
}

// Handler exposes the routed handler.
func (webAPI *WebAPI) Handler() http.Handler {
	return webAPI.router
}

// Start serves until executionContext is cancelled, then drains outstanding requests.
func (webAPI *WebAPI) Start(executionContext context.Context) error {
	serverErrors := make(chan error, 1)
	go func() {
		webAPI.logger.Info(serverStartingMessageConstant, zap.String(addressLogFieldConstant, webAPI.server.Addr))
		serverErrors <- webAPI.server.ListenAndServe()
	}()

	select {
	case serveError := <-serverErrors:
		if errors.Is(serveError, http.ErrServerClosed) {
			return nil
		}
		return serveError
	case <-executionContext.Done():
		webAPI.logger.Info(shutdownMessageConstant)

		shutdownContext, cancel := context.WithTimeout(context.Background(), webAPI.shutdownTimeout)
		defer cancel()

		shutdownError := webAPI.server.Shutdown(shutdownContext)
		if shutdownError != nil {
			webAPI.logger.Error(shutdownFailedMessageConstant, zap.Error(shutdownError))
			shutdownError = webAPI.server.Close()
		}
		return shutdownError
	}
}
