// Package server arma el handler HTTP con todas sus dependencias.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/hostboard/internal/analytics"
	"github.com/dropDatabas3/hostboard/internal/auth"
	"github.com/dropDatabas3/hostboard/internal/cache"
	"github.com/dropDatabas3/hostboard/internal/community"
	"github.com/dropDatabas3/hostboard/internal/config"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/draft"
	"github.com/dropDatabas3/hostboard/internal/graph"
	"github.com/dropDatabas3/hostboard/internal/http/controllers"
	communityctrl "github.com/dropDatabas3/hostboard/internal/http/controllers/community"
	draftsctrl "github.com/dropDatabas3/hostboard/internal/http/controllers/drafts"
	healthctrl "github.com/dropDatabas3/hostboard/internal/http/controllers/health"
	"github.com/dropDatabas3/hostboard/internal/http/router"
	healthsvc "github.com/dropDatabas3/hostboard/internal/http/services/health"
	"github.com/dropDatabas3/hostboard/internal/negotiate"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
	"github.com/dropDatabas3/hostboard/internal/rate"
	"github.com/dropDatabas3/hostboard/internal/slug"
	"github.com/dropDatabas3/hostboard/internal/store/pg"
)

// OpenBackend abre el QuestionRepository configurado (graph | postgres).
func OpenBackend(ctx context.Context, cfg *config.Config) (repository.QuestionRepository, error) {
	switch cfg.Backend.Driver {
	case "graph":
		g := cfg.Backend.Graph
		return graph.New(graph.Config{
			Endpoint:     g.Endpoint,
			APIKey:       g.APIKey,
			ServiceToken: g.ServiceToken,
			Timeout:      g.Timeout,
		}), nil
	case "postgres":
		p := cfg.Backend.Postgres
		tables := p.Tables
		if len(tables) == 0 {
			tables = pg.DefaultTables
		}
		return pg.Open(ctx, pg.Config{
			PrimaryDSN: p.PrimaryDSN,
			ReplicaDSN: p.ReplicaDSN,
			MaxConns:   p.MaxConns,
			Tables:     tables,
			Migrate:    p.Migrate,
		})
	}
	return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
}

// OpenCache abre el cache configurado.
func OpenCache(ctx context.Context, cfg *config.Config) (cache.Client, error) {
	return cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Prefix:   cfg.Cache.Prefix,
	})
}

// NewNegotiator arma el negociador con el override y los fallbacks configurados.
// Sin fallbacks configurados usa negotiate.DefaultCandidates.
func NewNegotiator(exec negotiate.Executor, cfg *config.Config) (*negotiate.Negotiator, error) {
	fallbacks := negotiate.DefaultCandidates
	if len(cfg.Negotiation.Fallbacks) > 0 {
		parsed, err := negotiate.ParseCandidates(strings.Join(cfg.Negotiation.Fallbacks, ","))
		if err != nil {
			return nil, fmt.Errorf("negotiation.fallbacks: %w", err)
		}
		fallbacks = parsed
	}
	var opts []negotiate.Option
	if cfg.Negotiation.Override != "" {
		o, err := negotiate.ParseCandidate(cfg.Negotiation.Override)
		if err != nil {
			return nil, fmt.Errorf("negotiation.override: %w", err)
		}
		opts = append(opts, negotiate.WithOverride(o))
	}
	return negotiate.New(exec, fallbacks, opts...), nil
}

// Deps son las piezas ya construidas que recibe Build. Los tests las
// arman con fakes.
type Deps struct {
	Config   *config.Config
	Backend  repository.QuestionRepository
	Cache    cache.Client
	Sink     analytics.Sink
	Verifier *auth.Verifier

	MetricsHandler http.Handler
}

// Build arma controllers y router sobre dependencias ya abiertas.
func Build(deps Deps) (http.Handler, error) {
	cfg := deps.Config
	sink := deps.Sink
	if sink == nil {
		sink = analytics.Nop
	}

	neg, err := NewNegotiator(deps.Backend, cfg)
	if err != nil {
		return nil, err
	}

	feed := community.NewFeed(deps.Backend, deps.Cache, community.FeedConfig{
		PageSize: cfg.Listing.PageSize,
		MaxLimit: cfg.Listing.MaxLimit,
		SeedTTL:  cfg.Listing.SeedTTL,
	})
	drafts := draft.NewStore(deps.Cache, draft.WithTTL(cfg.Drafts.TTL))
	slugs := slug.NewResolver(deps.Backend, slug.WithMaxProbes(cfg.Slug.MaxProbes))

	composer := community.NewComposer(slugs, neg,
		community.WithAnalytics(sink),
		community.WithDrafts(drafts),
		community.WithSignInURL(cfg.Auth.SignInURL),
		community.AfterCreate(func(ctx context.Context, _ *community.Created) {
			// La pregunta nueva tiene que aparecer en el seed.
			if err := feed.Invalidate(ctx); err != nil {
				logger.From(ctx).Warn("feed seed invalidation failed", logger.Err(err))
			}
		}),
	)

	health := healthsvc.NewHealthService(healthsvc.Deps{
		Version:      cfg.App.Version,
		Backend:      cfg.Backend.Driver,
		BackendCheck: deps.Backend.Ping,
		CacheCheck:   deps.Cache.Ping,
	})

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter = rate.New(deps.Cache, rate.Config{
			Max:    cfg.Rate.CreateLimit,
			Window: cfg.Rate.Window,
			Prefix: "rate:create:",
		})
	}

	return router.New(router.Deps{
		Controllers: &controllers.Controllers{
			Health:    healthctrl.NewHealthController(health),
			Questions: communityctrl.NewQuestionsController(feed, composer, slugs),
			Drafts:    draftsctrl.NewDraftsController(drafts, sink),
		},
		Verifier:       deps.Verifier,
		RateLimiter:    limiter,
		MetricsHandler: deps.MetricsHandler,
	}), nil
}

// BuildHandler abre backend y cache, arma el handler y devuelve el cleanup.
func BuildHandler(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	log := logger.From(ctx).With(logger.Component("server"))

	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open backend: %w", err)
	}
	c, err := OpenCache(ctx, cfg)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}

	cleanup := func() error {
		backend.Close()
		return c.Close()
	}

	h, err := Build(Deps{
		Config:   cfg,
		Backend:  backend,
		Cache:    c,
		Sink:     analytics.NewLogSink(logger.Named("analytics")),
		Verifier: auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
	})
	if err != nil {
		return nil, nil, errors.Join(err, cleanup())
	}

	log.Info("handler ready",
		logger.Backend(cfg.Backend.Driver),
		logger.String("cache", cfg.Cache.Driver),
		logger.Bool("rate_limit", cfg.Rate.Enabled))
	return h, cleanup, nil
}

// NewHTTPServer devuelve el http.Server con los timeouts configurados.
func NewHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}
