// Package app wires configuration, storage, services and the HTTP server
// into a runnable application.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/DigitalTwins-IS/ms-geo/internal/cache"
	"github.com/DigitalTwins-IS/ms-geo/internal/config"
	"github.com/DigitalTwins-IS/ms-geo/internal/httpapi"
	"github.com/DigitalTwins-IS/ms-geo/internal/metrics"
	"github.com/DigitalTwins-IS/ms-geo/internal/middleware"
	"github.com/DigitalTwins-IS/ms-geo/internal/services/cities"
	"github.com/DigitalTwins-IS/ms-geo/internal/services/zones"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage/memory"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage/postgres"
	"github.com/DigitalTwins-IS/ms-geo/pkg/logger"
)

// Application owns the server and every resource it needs to run.
type Application struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *sql.DB
	cache  *cache.Cache
	server *http.Server

	stopLimiterCleanup func()
}

// New builds the application from configuration. When no database DSN is
// configured the in-memory store backs the API, which is what the test
// environments use.
func New(cfg *config.Config, log *logger.Logger) (*Application, error) {
	a := &Application{cfg: cfg, log: log}

	var (
		cityStore storage.CityStore
		zoneStore storage.ZoneStore
		pinger    storage.Pinger
	)
	if cfg.Database.DSN != "" {
		db, err := openDatabase(cfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		store := postgres.New(db)
		a.db = db
		cityStore, zoneStore, pinger = store, store, store
		log.WithField("max_open_conns", cfg.Database.MaxOpenConns).Info("connected to postgres")
	} else {
		store := memory.New()
		cityStore, zoneStore, pinger = store, store, store
		log.Warn("no database configured, using in-memory store")
	}

	a.cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, time.Duration(cfg.Redis.TTL)*time.Second)
	if a.cache != nil {
		log.WithField("addr", cfg.Redis.Addr).Info("redis cache enabled")
	}

	citySvc := cities.New(cityStore, zoneStore, a.cache, cfg.DefaultCountry, log)
	zoneSvc := zones.New(zoneStore, cityStore, citySvc, log)

	handler := httpapi.NewHandler(cfg, citySvc, zoneSvc, pinger)

	auth := middleware.NewAuthMiddleware(cfg.Auth.Secret, log, []string{
		"/", "/health", "/metrics", cfg.APIPrefix + "/health",
	})
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	a.stopLimiterCleanup = limiter.StartCleanup(5 * time.Minute)

	var chain http.Handler = handler
	chain = auth.Handler(chain)
	chain = limiter.Handler(chain)
	chain = middleware.NewCORSMiddleware(cfg.CORS.Origins).Handler(chain)
	chain = middleware.RequestLogging(log)(chain)
	chain = metrics.InstrumentHandler(chain)

	a.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails. Shutdown is graceful with a 10 second deadline.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.server.Addr).Info("server listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	a.Close()
	a.log.Info("server stopped")
	return nil
}

// Close releases the database and cache connections and stops background
// goroutines.
func (a *Application) Close() {
	if a.stopLimiterCleanup != nil {
		a.stopLimiterCleanup()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
}
