package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/qr-links/internal/adapter/idgen"
	"github.com/vadimbarashkov/qr-links/internal/adapter/qrcode"
	"github.com/vadimbarashkov/qr-links/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/qr-links/internal/adapter/shortener"
	"github.com/vadimbarashkov/qr-links/internal/adapter/token"
	"github.com/vadimbarashkov/qr-links/internal/config"
	"github.com/vadimbarashkov/qr-links/internal/entity"
	"github.com/vadimbarashkov/qr-links/internal/usecase"
	"github.com/vadimbarashkov/qr-links/pkg/postgres"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/qr-links/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/qr-links/internal/adapter/repository/postgres"
)

const serviceName = "qr-links"

const shutdownTimeout = 10 * time.Second

type linkStore interface {
	Save(ctx context.Context, link *entity.Link) (*entity.Link, error)
	RetrieveByID(ctx context.Context, id string) (*entity.Link, error)
	RetrieveByOwner(ctx context.Context, ownerID string) ([]*entity.Link, error)
	UpdateDestination(ctx context.Context, id, ownerID, destinationURL string) (*entity.Link, error)
	RecordScan(ctx context.Context, id string) (*entity.Link, error)
	Remove(ctx context.Context, id, ownerID string) error
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg, os.Stdout)

	store, closeStore, err := newLinkStore(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeStore()

	logger.Info("link store ready", slog.String("driver", cfg.Storage.Driver))

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        newRouter(cfg, logger, store),
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

		logger.Info("starting http server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		logger.Info("http server stopped")

		return nil
	})

	return g.Wait()
}

func newLogger(cfg *config.Config, w io.Writer) *httplog.Logger {
	return httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:         cfg.Log.SlogLevel(),
		JSON:             cfg.Env != config.EnvDev,
		Concise:          cfg.Env == config.EnvDev,
		MessageFieldName: "message",
		QuietDownRoutes:  []string{"/api/v1/ping"},
		QuietDownPeriod:  time.Minute,
		Writer:           w,
	})
}

func newLinkStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (linkStore, func() error, error) {
	const op = "app.newLinkStore"

	if cfg.Storage.Driver == config.StorageDriverMemory {
		return memory.NewLinkRepository(), func() error { return nil }, nil
	}

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	version, err := postgres.RunMigrations(cfg.Storage.MigrationsPath, cfg.Postgres.DSN())
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	logger.Info("database migrated", slog.Uint64("version", uint64(version)))

	return pgrepo.NewLinkRepository(db), db.Close, nil
}

type linkShortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

func newShortener(cfg *config.Config) linkShortener {
	if cfg.Shortener.Endpoint == "" {
		return shortener.NopClient{}
	}
	return shortener.New(cfg.Shortener.Endpoint, cfg.Shortener.Timeout)
}

func newRouter(cfg *config.Config, logger *httplog.Logger, store linkStore) *chi.Mux {
	linkUseCase := usecase.New(
		cfg.RedirectBaseURL,
		store,
		idgen.NewNanoID(cfg.IDLength),
		newShortener(cfg),
		qrcode.NewEncoder(cfg.QR.Size),
		usecase.WithLogger(logger.Logger),
		usecase.WithOwnerNotifier(&loggingNotifier{logger: logger.Logger}),
	)

	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	return delivery.NewRouter(logger, linkUseCase, store, tokens)
}

// loggingNotifier records owner lifecycle events until an account service consumes them.
type loggingNotifier struct {
	logger *slog.Logger
}

func (n *loggingNotifier) LinkCreated(_ context.Context, ownerID string) error {
	n.logger.Debug("link created", slog.String("owner_id", ownerID))
	return nil
}

func (n *loggingNotifier) LinkRemoved(_ context.Context, ownerID string) error {
	n.logger.Debug("link removed", slog.String("owner_id", ownerID))
	return nil
}
