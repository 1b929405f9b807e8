package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/config"
	"github.com/dmitrijs2005/gophnotes/internal/client/scheduler"
	"github.com/dmitrijs2005/gophnotes/internal/client/services"
	"github.com/dmitrijs2005/gophnotes/internal/client/session"
	"github.com/dmitrijs2005/gophnotes/internal/client/store"
	"github.com/dmitrijs2005/gophnotes/internal/client/syncer"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

const requestTimeout = 10 * time.Second

func newTransport(c *config.Config) (client.Client, error) {
	switch c.Transport {
	case config.TransportGRPC:
		addr := strings.TrimPrefix(strings.TrimPrefix(c.ServerAddr, "http://"), "https://")
		return client.NewGRPCClient(addr)
	case config.TransportHTTP:
		return client.NewHTTPClient(c.ServerAddr, requestTimeout), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Transport)
	}
}

// NewAppFromConfig opens the local store and wires the transport, the
// session, the sync engine and the scheduler into an App. Logs go to logw.
func NewAppFromConfig(ctx context.Context, c *config.Config, in io.Reader, out, logw io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.NewTextLogger(logw, logging.ParseLevel(c.LogLevel))

	db, err := store.Open(ctx, c.DBFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := newTransport(c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	st := store.New(db, logger.With("component", "store"))
	sess := session.New(st.Metadata(), apiClient)
	if err := sess.Load(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error loading session: %w", err)
	}

	sy := syncer.New(st, apiClient, sess, logger.With("component", "syncer"), syncer.DefaultPageSize)
	sched := scheduler.New(sy, apiClient, c.SyncInterval, c.OnlineCheckInterval, logger.With("component", "scheduler"))

	app := NewApp(
		services.NewAuthService(apiClient, st, sess, logger),
		services.NewNotesService(apiClient, st, sess, sy),
		sched, logger, in, out,
	)
	app.db = db
	sched.OnAuthExpired = func() {
		app.println("\nSession expired. Please log in again.")
	}
	return app, nil
}
