// Package server wires configuration, storage, services and the HTTP and
// gRPC fronts into a runnable application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/httpapi"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"

	gs "github.com/dmitrijs2005/gophnotes/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	backend services.Backend
}

// openDB is a seam for tests.
var openDB = repomanager.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(ctx, c, logger, db, repomanager.NewPostgresRepositoryManager())
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	backend := services.Backend{
		Sync:   services.NewSyncService(db, rm, c, logger.With("service", "sync")),
		Notes:  services.NewNoteService(db, rm, logger.With("service", "notes")),
		Users:  services.NewUserService(db, rm, c, logger.With("service", "users")),
		Export: services.NewExportService(db, rm, c, logger.With("service", "export")),
	}

	return &App{config: c, logger: logger, db: db, backend: backend}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

type runner interface {
	Run(ctx context.Context) error
}

// start runs srv and cancels the whole app when it fails.
func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, srv runner, err error) {
	if err == nil {
		err = srv.Run(ctx)
	}
	if err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run serves both fronts until a signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		s, err := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.backend, app.config.SecretKey)
		app.start(ctx, cancelFunc, "http", s, err)
	}()
	go func() {
		defer wg.Done()
		s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.backend, app.config.SecretKey)
		app.start(ctx, cancelFunc, "grpc", s, err)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
