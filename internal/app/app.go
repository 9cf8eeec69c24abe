package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/tinylink/internal/config"
	"github.com/vadimbarashkov/tinylink/internal/usecase"
	"github.com/vadimbarashkov/tinylink/pkg/postgres"
	"github.com/vadimbarashkov/tinylink/pkg/redis"
	"golang.org/x/sync/errgroup"

	cache "github.com/vadimbarashkov/tinylink/internal/adapter/cache/redis"
	delivery "github.com/vadimbarashkov/tinylink/internal/adapter/delivery/http"
	repository "github.com/vadimbarashkov/tinylink/internal/adapter/repository/postgres"
)

const serviceName = "tinylink"

func newLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		RequestHeaders:   true,
		MessageFieldName: "message",
	}

	if env == config.EnvProd {
		opts.JSON = true
		opts.LogLevel = slog.LevelInfo
		opts.Concise = false
		opts.RequestHeaders = false
	}

	return httplog.NewLogger(serviceName, opts)
}

// Run wires the store, the optional cache and the HTTP server, then serves
// until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg.Env)

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

	if err := postgres.RunMigrations(cfg.MigrationsPath, cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	opts := []usecase.Option{
		usecase.WithCodeLength(cfg.ShortCodeLength),
		usecase.WithGenerateAttempts(cfg.GenerateAttempts),
		usecase.WithLogger(logger.Logger),
	}

	if cfg.Redis.Enabled() {
		client, err := redis.New(
			ctx,
			cfg.Redis.URL,
			redis.WithPoolSize(cfg.Redis.PoolSize),
			redis.WithMinIdleConns(cfg.Redis.MinIdleConns),
		)
		if err != nil {
			return fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}
		defer client.Close()

		opts = append(opts, usecase.WithCache(cache.NewLinkCache(client, cfg.Redis.TTL)))
		logger.Info("link cache enabled", slog.Duration("ttl", cfg.Redis.TTL))
	}

	linkRepo := repository.NewLinkRepository(db)
	linkUseCase := usecase.New(linkRepo, opts...)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        delivery.NewRouter(logger, linkUseCase),
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
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

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

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
