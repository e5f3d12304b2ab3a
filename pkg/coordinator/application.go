package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yaplytics/mindshare/pkg/fetch"
	"github.com/yaplytics/mindshare/pkg/observability"
	"github.com/yaplytics/mindshare/pkg/store"
)

// Application encapsulates the tracker application wiring: configuration,
// storage, fetch client, coordinator, and the operational HTTP endpoints.
type Application struct {
	config *Config
	logger *logrus.Logger

	store        *store.Store
	cache        *fetch.Cache
	client       *fetch.Client
	coordinator  Service
	healthServer *http.Server
}

// NewApplication creates a new tracker application
func NewApplication(cfg *Config, logger *logrus.Logger) *Application {
	return &Application{
		config: cfg,
		logger: logger,
	}
}

// Coordinator exposes the running coordinator service.
func (a *Application) Coordinator() Service { return a.coordinator }

// Store exposes the snapshot store.
func (a *Application) Store() *store.Store { return a.store }

// Client exposes the fetch client.
func (a *Application) Client() *fetch.Client { return a.client }

// Start initializes and starts the tracker application
func (a *Application) Start(ctx context.Context) error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.logger.Info("Starting mindshare tracker...")

	observability.StartMetricsServer(a.config.MetricsAddr)
	a.logger.WithField("addr", a.config.MetricsAddr).Info("Started metrics server")

	if a.config.HealthCheckAddr != "" {
		a.startHealthCheck()
	}

	st, err := store.New(a.logger, &a.config.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.store = st

	if err := st.InitSchema(ctx); err != nil {
		return err
	}

	// The cache is owned here and handed to the client by reference; the
	// coordinator invalidates it through the client after each write
	a.cache = fetch.NewCache(a.config.Fetch.CacheTTL)
	client, err := fetch.NewClient(a.logger, &a.config.Fetch, a.cache)
	if err != nil {
		return fmt.Errorf("failed to create fetch client: %w", err)
	}
	a.client = client

	coord, err := NewService(a.logger, a.config, client, st)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	a.coordinator = coord

	if err := coord.Start(ctx); err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	a.logger.WithField("db", a.config.Store.Path).Info("Tracker started successfully")

	return nil
}

// Stop gracefully shuts down the tracker application
func (a *Application) Stop() error {
	a.logger.Info("Shutting down tracker...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.healthServer != nil {
		if err := a.healthServer.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Error("Failed to shutdown health check server")
		}
	}

	if a.coordinator != nil {
		if err := a.coordinator.Stop(); err != nil {
			a.logger.WithError(err).Error("Error stopping coordinator")
			// Continue with cleanup
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.WithError(err).Error("Failed to close store")
		}
	}

	return nil
}

func (a *Application) startHealthCheck() {
	a.logger.WithField("addr", a.config.HealthCheckAddr).Info("Starting health check server")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if a.coordinator != nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("READY"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT READY"))
		}
	})

	a.healthServer = &http.Server{
		Addr:              a.config.HealthCheckAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := a.healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("Health check server failed")
		}
	}()
}
