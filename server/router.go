// Package server assembles the wfstd transducer repository service: a
// chi-routed HTTP frontend (package api) backed by the tunas service layer
// and a pluggable dao.Store.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tapeset/wfst/internal/version"
	"github.com/tapeset/wfst/server/api"
	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/middle"
	"github.com/tapeset/wfst/server/tunas"
)

// Server holds the running state of a wfstd instance: its persistence store
// and the HTTP mux that routes to it.
type Server struct {
	db      dao.Store
	backend tunas.Service
	mux     *chi.Mux
}

// New connects to the DB described by cfg, builds the API, and assembles the
// router. Call ListenAndServe to start serving requests.
func New(cfg Config) (Server, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return Server{}, fmt.Errorf("invalid config: %w", err)
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return Server{}, fmt.Errorf("connect to DB: %w", err)
	}

	a := api.API{
		Backend:     tunas.Service{DB: db},
		UnauthDelay: cfg.UnauthDelay(),
		Secret:      cfg.TokenSecret,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.With(middle.OptionalAuth(db.Accounts(), a.Secret, a.UnauthDelay)).Get("/info", a.HTTPGetInfo())

		r.Post("/login", a.HTTPCreateLogin())
		r.With(middle.RequireAuth(db.Accounts(), a.Secret, a.UnauthDelay)).Delete("/login/{id}", a.HTTPDeleteLogin())

		r.Group(func(r chi.Router) {
			r.Use(middle.RequireAuth(db.Accounts(), a.Secret, a.UnauthDelay))

			r.Post("/tokens", a.HTTPCreateToken())

			r.Get("/accounts", a.HTTPGetAllAccounts())
			r.Post("/accounts", a.HTTPCreateAccount())
			r.Get("/accounts/{id}", a.HTTPGetAccount())
			r.Put("/accounts/{id}", a.HTTPUpdateAccount())
			r.Delete("/accounts/{id}", a.HTTPDeleteAccount())

			r.Get("/transducers", a.HTTPGetAllTransducers())
			r.Post("/transducers", a.HTTPCreateTransducer())
			r.Get("/transducers/{name}", a.HTTPGetTransducer())
			r.Delete("/transducers/{name}", a.HTTPDeleteTransducer())
			r.Post("/transducers/{name}/lookup", a.HTTPLookup())
		})
	})

	return Server{db: db, backend: a.Backend, mux: r}, nil
}

// CreateInitialAccount creates an account directly against the backend,
// bypassing HTTP auth. It is intended for bootstrapping the first admin
// account on a fresh store; callers should ignore serr.ErrAlreadyExists.
func (s Server) CreateInitialAccount(ctx context.Context, username, password, email string, role dao.Role) (dao.Account, error) {
	return s.backend.CreateAccount(ctx, username, password, email, role)
}

// ListenAndServe starts the HTTP server on the given address and port. It
// blocks until the server exits, returning the error that caused the exit.
func (s Server) ListenAndServe(addr string, port int) error {
	bind := fmt.Sprintf("%s:%d", addr, port)
	httpSrv := &http.Server{
		Addr:    bind,
		Handler: s.mux,
	}
	return httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the DB connections backing the server.
func (s Server) Shutdown(ctx context.Context) error {
	return s.db.Close()
}

// CurrentVersion returns the version string of the running wfstd.
func CurrentVersion() string {
	return version.ServerCurrent
}
