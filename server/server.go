// Package server brings together the oracle server's backend service, its
// HTTP API, and the routing between them.
package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dekarrin/gramoracle/internal/catalog"
	"github.com/dekarrin/gramoracle/internal/config"
	"github.com/dekarrin/gramoracle/server/api"
	"github.com/dekarrin/gramoracle/server/dao/inmem"
	"github.com/dekarrin/gramoracle/server/gramo"
	"github.com/dekarrin/gramoracle/server/middle"
)

// OracleServer is an HTTP REST server that serves the session lifecycle of
// continuation oracles: specs are registered to a catalog, sessions are
// started over them, and the oracle contract (continuations, next, match
// checks) is queried per session.
type OracleServer struct {
	backend gramo.Service
	apiLay  api.API

	jwtSecret   []byte
	unauthDelay time.Duration
}

// New creates an OracleServer from a validated config.
func New(cfg config.Config) (*OracleServer, error) {
	cat, err := openCatalog(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	backend := gramo.Service{
		DB:            inmem.NewDatastore(),
		Catalog:       cat,
		CacheCapacity: cfg.CacheCapacity,
	}

	unauthDelay := time.Duration(cfg.UnauthDelayMillis) * time.Millisecond
	if unauthDelay < 0 {
		unauthDelay = 0
	}

	secret := []byte(cfg.TokenSecret)

	return &OracleServer{
		backend: backend,
		apiLay: api.API{
			Backend:     backend,
			UnauthDelay: unauthDelay,
			Secret:      secret,
		},
		jwtSecret:   secret,
		unauthDelay: unauthDelay,
	}, nil
}

func openCatalog(db config.Database) (catalog.Store, error) {
	switch db.Type {
	case config.DatabaseInMem:
		return catalog.NewInMemStore(), nil
	case config.DatabaseSQLite:
		err := os.MkdirAll(db.DataDir, 0770)
		if err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return catalog.NewSQLiteStore(db.DataDir)
	default:
		return nil, fmt.Errorf("unknown database type: %q", db.Type.String())
	}
}

// Backend returns the server's service layer, for direct programmatic
// access (e.g. seeding an initial API client before serving).
func (osv *OracleServer) Backend() gramo.Service {
	return osv.backend
}

// ServeForever begins listening on the given address and port and blocks
// until the server is stopped.
func (osv *OracleServer) ServeForever(addr string, port int) error {
	listenOn := fmt.Sprintf("%s:%d", addr, port)
	log.Printf("INFO  Listening on %s", listenOn)
	return http.ListenAndServe(listenOn, osv.routes())
}

func (osv *OracleServer) routes() chi.Router {
	auth := middle.Auth{
		Clients:     osv.backend.DB.Clients(),
		Keys:        osv.backend,
		Secret:      osv.jwtSecret,
		UnauthDelay: osv.unauthDelay,
	}
	optAuth := auth.Optional()
	reqAuth := auth.Required()

	r := chi.NewRouter()
	r.Use(middle.Recover())

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.Post("/login", osv.apiLay.HTTPCreateLogin())
		r.With(optAuth).Get("/info", osv.apiLay.HTTPGetInfo())

		r.Route("/specs", func(r chi.Router) {
			r.Get("/", osv.apiLay.HTTPGetSpecs())
			r.Get("/{name}", osv.apiLay.HTTPGetSpec())
			r.With(reqAuth).Post("/", osv.apiLay.HTTPCreateSpec())
			r.With(reqAuth).Delete("/{name}", osv.apiLay.HTTPDeleteSpec())
		})

		r.Route("/sessions", func(r chi.Router) {
			r.With(reqAuth).Post("/", osv.apiLay.HTTPCreateSession())
			r.Get("/", osv.apiLay.HTTPGetSessions())

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", osv.apiLay.HTTPGetSession())
				r.With(reqAuth).Delete("/", osv.apiLay.HTTPDeleteSession())

				r.Get("/continuations", osv.apiLay.HTTPGetContinuations())
				r.With(reqAuth).Post("/next", osv.apiLay.HTTPSessionNext())
				r.With(reqAuth).Post("/feed", osv.apiLay.HTTPSessionFeed())
				r.With(reqAuth).Post("/reset", osv.apiLay.HTTPSessionReset())

				r.Get("/snapshot", osv.apiLay.HTTPGetSnapshot())
				r.With(reqAuth).Put("/snapshot", osv.apiLay.HTTPPutSnapshot())
			})
		})

		r.With(reqAuth).Post("/parse", osv.apiLay.HTTPCreateParse())
	})

	return r
}
