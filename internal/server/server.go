// Package server exposes estimation sessions and the catalog lookup over
// HTTP. Sessions live in memory and are evicted after idling.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/engine"
	"github.com/rshade/boqlca/internal/export"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
	"github.com/rshade/boqlca/internal/lookup"
)

// Server limits.
const (
	DefaultMaxBodyBytes    = 10 << 20
	DefaultShutdownTimeout = 10 * time.Second
	sweepInterval          = time.Minute
	readHeaderTimeout      = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Mapping and InputDelimiter apply to uploaded inventories. A zero
	// delimiter is detected from the upload.
	Mapping        inventory.Mapping
	InputDelimiter rune

	Export export.Options

	MaxSessions int
	IdleTimeout time.Duration

	// KgPerM3 is the reinforcement ratio used when a request names none.
	KgPerM3 float64

	// SessionOptions are applied to every new session.
	SessionOptions []engine.Option

	// Catalog, when set, resolves override entry ids that no row offers.
	Catalog catalog.Provider

	Logger       zerolog.Logger
	MaxBodyBytes int64
}

// Server is the HTTP front of the estimation engine.
type Server struct {
	lookup   lookup.Lookup
	opts     Options
	store    *Store
	validate *validator.Validate
	router   *gin.Engine
}

// New builds a Server resolving rows through l.
//
// Parameters:
//   - l: the lookup used by sessions and served on /v1/lookup
//   - opts: server options; zero values take the package defaults
//
// Returns the server with its routes registered.
func New(l lookup.Lookup, opts Options) *Server {
	if opts.Mapping == (inventory.Mapping{}) {
		opts.Mapping = inventory.DefaultMapping()
	}
	if opts.Export.Delimiter == 0 {
		opts.Export = export.DefaultOptions()
	}
	if opts.Export.Mapping == (inventory.Mapping{}) {
		opts.Export.Mapping = opts.Mapping
	}
	if opts.KgPerM3 <= 0 {
		opts.KgPerM3 = engine.DefaultKgPerM3
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		lookup:   l,
		opts:     opts,
		store:    NewStore(opts.MaxSessions, opts.IdleTimeout),
		validate: newValidator(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Store returns the session store.
func (s *Server) Store() *Store { return s.store }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(), requestContext(s.opts.Logger))

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST(lookup.LookupPath, s.handleLookup)

	sessions := r.Group("/v1/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("/:id", s.handleGetSession)
	sessions.DELETE("/:id", s.handleDeleteSession)
	sessions.POST("/:id/rows", s.handleAppendRows)
	sessions.GET("/:id/groups", s.handleGroups)
	sessions.POST("/:id/override", s.handleOverride)
	sessions.PUT("/:id/rows/:rowId/unit", s.handleChangeUnit)
	sessions.POST("/:id/rows/:rowId/toggle-area", s.handleToggleArea)
	sessions.POST("/:id/area", s.handleAssignArea)
	sessions.POST("/:id/delete", s.handleDeleteRows)
	sessions.POST("/:id/reinforcement", s.handleReinforcement)
	sessions.GET("/:id/export", s.handleExport)

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Idle sessions are swept in the background while serving.
func (s *Server) Run(ctx context.Context, addr string) error {
	log := logging.FromContext(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("component", "server").
			Str("operation", "run").
			Str("addr", addr).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), DefaultShutdownTimeout)
		defer cancel()
		log.Info().
			Str("component", "server").
			Str("operation", "shutdown").
			Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := s.store.Sweep(); n > 0 {
					log.Debug().
						Str("component", "server").
						Str("operation", "sweep").
						Int("evicted", n).
						Msg("idle sessions evicted")
				}
			}
		}
	})
	return g.Wait()
}
