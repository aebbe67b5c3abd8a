package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/gureli35/url-kisaltici/internal/api/http"
	"github.com/gureli35/url-kisaltici/internal/config"
	dbpostgres "github.com/gureli35/url-kisaltici/internal/database/postgres"
	"github.com/gureli35/url-kisaltici/internal/service"
	"github.com/gureli35/url-kisaltici/pkg/postgres"
)

// Run wires the application together and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := postgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	logger := newLogger(cfg.Env)

	urlRepo := dbpostgres.NewURLRepository(db)
	urlSvc := service.NewURLService(urlRepo, cfg.ShortCodeLength)
	tracker := service.NewClickTracker(urlRepo, logger.Logger)
	resolver := service.NewResolver(urlSvc, tracker)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        myhttp.NewRouter(logger, cfg.BaseURL, urlSvc, resolver, urlRepo),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		tracker.Flush()

		return nil
	})

	return g.Wait()
}

// newLogger builds the request logger. Production logs are structured JSON;
// stage trims to concise text and dev discards nothing but stays readable.
func newLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
	}

	switch env {
	case config.EnvProd:
		opts = httplog.Options{
			LogLevel: slog.LevelInfo,
			JSON:     true,
		}
	case config.EnvStage:
		opts = httplog.Options{
			LogLevel: slog.LevelInfo,
			Concise:  true,
		}
	}

	return httplog.NewLogger("url-kisaltici", opts)
}
