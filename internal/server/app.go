// Package server assembles the batikhub application: database and
// migrations, blob storage, services, metrics and the HTTP API. It runs until
// the process receives SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/minangbatik/batikhub/internal/logging"
	"github.com/minangbatik/batikhub/internal/server/blobstore"
	"github.com/minangbatik/batikhub/internal/server/config"
	"github.com/minangbatik/batikhub/internal/server/httpapi"
	"github.com/minangbatik/batikhub/internal/server/metrics"
	"github.com/minangbatik/batikhub/internal/server/repositories/repomanager"
	"github.com/minangbatik/batikhub/internal/server/services"
)

// Seams for tests.
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := build(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	blobs, err := blobstore.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	m, err := metrics.New(nil)
	if err != nil {
		return nil, err
	}

	us := services.NewUserService(db, rm, c, logger)
	bs := services.NewBatikService(db, rm, blobs, logger)
	bs.SetObserver(m)
	cs := services.NewCommentService(db, rm, logger)

	opts := httpapi.Options{
		Address:        c.EndpointAddrHTTP,
		Users:          us,
		Batiks:         bs,
		Comments:       cs,
		Recorder:       m,
		MetricsHandler: m.Handler(),
		Logger:         logger,
	}
	if local, ok := blobs.(*blobstore.Local); ok {
		opts.Files = local
	}

	return &App{config: c, logger: logger, db: db, server: httpapi.New(opts)}, nil
}

// Run serves until ctx is cancelled or a shutdown signal arrives, then closes
// the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "address", app.config.EndpointAddrHTTP, "blob_backend", app.config.BlobBackend)

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
	}

	if cerr := app.db.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("db close: %w", cerr))
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}
