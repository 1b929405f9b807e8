// Package httpapi is the JSON-over-HTTP front of the server.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

const (
	maxBodyBytes    = 4 << 20
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	address    string
	backend    services.Backend
	logger     logging.Logger
	jwtSecret  []byte
	syncSchema *jsonschema.Schema
	router     *mux.Router
}

func NewServer(address string, l logging.Logger, backend services.Backend, secretKey string) (*Server, error) {
	schema, err := compileSyncSchema()
	if err != nil {
		return nil, err
	}

	s := &Server{
		address:    address,
		backend:    backend,
		logger:     l.With("module", "http_server"),
		jwtSecret:  []byte(secretKey),
		syncSchema: schema,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.correlate, s.accessLog)

	r.Methods(http.MethodGet).Path("/health").HandlerFunc(s.health)

	a := r.PathPrefix("/v1/auth").Subrouter()
	a.Methods(http.MethodPost).Path("/register").HandlerFunc(s.register)
	a.Methods(http.MethodPost).Path("/login").HandlerFunc(s.login)
	a.Methods(http.MethodPost).Path("/refresh").HandlerFunc(s.refresh)
	a.Methods(http.MethodPost).Path("/logout").HandlerFunc(s.logout)

	v := r.PathPrefix("/v1").Subrouter()
	v.Use(s.authenticate)
	v.Methods(http.MethodPost).Path("/sync").HandlerFunc(s.sync)
	v.Methods(http.MethodGet).Path("/notes").HandlerFunc(s.listNotes)
	v.Methods(http.MethodPost).Path("/notes/export").HandlerFunc(s.export)
	v.Methods(http.MethodPost).Path("/notes/{id}/share").HandlerFunc(s.share)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, codeNotFound, "no such endpoint")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	return r
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
