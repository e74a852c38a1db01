package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mindengage-pathways/internal/api/http"
	auth "github.com/mind-engage/mindengage-pathways/internal/auth/middleware"
	"github.com/mind-engage/mindengage-pathways/internal/catalog/httpclient"
	"github.com/mind-engage/mindengage-pathways/internal/config"
	"github.com/mind-engage/mindengage-pathways/internal/db"
	"github.com/mind-engage/mindengage-pathways/internal/events"
	"github.com/mind-engage/mindengage-pathways/internal/identity"
	"github.com/mind-engage/mindengage-pathways/internal/logging"
	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

func main() {
	cfg := config.FromEnv()
	log := logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Scoring ---
	scheme, err := scoring.SelectScheme(cfg.ScoringScheme, cfg.ScoringSchemeFile)
	if err != nil {
		return err
	}
	norm, err := scoring.New(scoring.WithScheme(scheme))
	if err != nil {
		return err
	}

	// --- DB ---
	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return err
	}
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, driver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	checks := []func(context.Context) error{dbh.PingContext}

	// --- Identity memo ---
	memo, closeMemo, err := openMemo(openCtx, cfg, dbh)
	if err != nil {
		return err
	}
	defer closeMemo()
	if rm, ok := memo.(*identity.RedisMemo); ok {
		checks = append(checks, rm.HealthCheck)
	}

	// --- Events ---
	sink := events.Multi{events.NewEventLog(dbh, cfg.SiteID)}
	if cfg.AMQPURL != "" {
		pub, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		sink = append(sink, pub)
		log.Info("publishing events", "exchange", pub.Exchange())
	}

	// --- LMS backend ---
	client := httpclient.New(httpclient.Config{
		BaseURL:      cfg.BackendURL,
		Timeout:      cfg.BackendTimeout,
		TokenURL:     cfg.BackendTokenURL,
		ClientID:     cfg.BackendClientID,
		ClientSecret: cfg.BackendClientSecret,
		Logger:       log,
	})
	checks = append(checks, client.Ping)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Auth:        auth.NewAuthService(cfg.AuthHMACSecret),
		RequireAuth: cfg.RequireAuth,
		Normalizer:  norm,
		Backend: func(ctx context.Context) api.Backend {
			return client.WithToken(auth.TokenFromContext(ctx))
		},
		Memo:   memo,
		Events: sink,
		Log:    log,
		Ready: func(ctx context.Context) error {
			for _, check := range checks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", driver, "memo", cfg.MemoDriver, "scheme", scheme.Name)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func openMemo(ctx context.Context, cfg config.Config, dbh *sql.DB) (identity.Memo, func(), error) {
	switch cfg.MemoDriver {
	case "redis":
		m, err := identity.NewRedisMemo(ctx, cfg.RedisURL, cfg.MemoTTL)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close() }, nil
	case "sql":
		return identity.NewSQLMemo(dbh), func() {}, nil
	case "memory":
		return identity.NewMemoryMemo(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported memo driver: %s", cfg.MemoDriver)
}
