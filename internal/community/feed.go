package community

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hostboard/internal/cache"
	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
	"github.com/dropDatabas3/hostboard/internal/pager"
)

// Source es la parte de lectura de un backend.
type Source interface {
	ListQuestions(ctx context.Context, tier credtier.Tier, cursor string, limit int) (pager.Page[repository.Question], error)
}

// FeedConfig parámetros del Feed.
type FeedConfig struct {
	PageSize int
	MaxLimit int
	SeedTTL  time.Duration
}

// Feed sirve páginas de preguntas con fallback de credenciales. La primera
// página (seed) se cachea y las cargas concurrentes se colapsan.
type Feed struct {
	src      Source
	cache    cache.Client
	cfg      FeedConfig
	resolver *credtier.Resolver
	sf       singleflight.Group
}

func NewFeed(src Source, c cache.Client, cfg FeedConfig) *Feed {
	if cfg.PageSize <= 0 {
		cfg.PageSize = pager.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.MaxLimit < cfg.PageSize {
		cfg.MaxLimit = cfg.PageSize
	}
	return &Feed{src: src, cache: c, cfg: cfg, resolver: resolver("feed")}
}

func resolver(component string) *credtier.Resolver {
	return credtier.NewResolver("community." + component)
}

func emptyPage(p pager.Page[repository.Question]) bool { return len(p.Items) == 0 }

// Limit normaliza el tamaño pedido al rango permitido.
func (f *Feed) Limit(n int) int {
	switch {
	case n <= 0:
		return f.cfg.PageSize
	case n > f.cfg.MaxLimit:
		return f.cfg.MaxLimit
	}
	return n
}

// Fetcher adapta el Feed a un pager.Fetcher (el pager pone su propio fallback).
func (f *Feed) Fetcher() pager.Fetcher[repository.Question] {
	return f.src.ListQuestions
}

// Page lee una página pasando por Primary y, si falla o viene vacía, Secondary.
func (f *Feed) Page(ctx context.Context, cursor string, limit int) (pager.Page[repository.Question], error) {
	limit = f.Limit(limit)
	op := func(ctx context.Context, tier credtier.Tier) (pager.Page[repository.Question], error) {
		return f.src.ListQuestions(ctx, tier, cursor, limit)
	}
	return credtier.ExecuteWithFallback[pager.Page[repository.Question]](ctx, f.resolver, op, emptyPage)
}

func (f *Feed) seedKey() string { return "feed:seed:" + strconv.Itoa(f.cfg.PageSize) }

// Seed retorna la primera página para el render del servidor.
func (f *Feed) Seed(ctx context.Context) (pager.Page[repository.Question], error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("community.feed"), logger.Op("Seed"))
	key := f.seedKey()

	if f.cache != nil && f.cfg.SeedTTL > 0 {
		if raw, err := f.cache.Get(ctx, key); err == nil {
			var page pager.Page[repository.Question]
			if jerr := json.Unmarshal([]byte(raw), &page); jerr == nil {
				return page, nil
			}
			log.Warn("discarding corrupt seed page", logger.Key(key))
		} else if !cache.IsNotFound(err) {
			log.Warn("seed cache read failed", logger.Err(err))
		}
	}

	v, err, shared := f.sf.Do(key, func() (any, error) {
		page, err := f.Page(ctx, "", f.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		f.storeSeed(ctx, key, page)
		return page, nil
	})
	if err != nil {
		return pager.Page[repository.Question]{}, err
	}
	if shared {
		log.Debug("seed page shared with concurrent caller")
	}
	return v.(pager.Page[repository.Question]), nil
}

func (f *Feed) storeSeed(ctx context.Context, key string, page pager.Page[repository.Question]) {
	if f.cache == nil || f.cfg.SeedTTL <= 0 {
		return
	}
	raw, err := json.Marshal(page)
	if err == nil {
		err = f.cache.Set(ctx, key, string(raw), f.cfg.SeedTTL)
	}
	if err != nil {
		logger.From(ctx).Warn("seed cache write failed", logger.Component("community.feed"), logger.Err(err))
	}
}

// Invalidate descarta el seed cacheado (tras crear una pregunta).
func (f *Feed) Invalidate(ctx context.Context) error {
	if f.cache == nil {
		return nil
	}
	if err := f.cache.Delete(ctx, f.seedKey()); err != nil {
		return fmt.Errorf("community: invalidate seed: %w", err)
	}
	return nil
}
