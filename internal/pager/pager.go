// Package pager mantiene el estado de un listado paginado por cursor:
// items (solo se agregan al final), cursor opaco y flag de fetch en vuelo.
//
// Cada Pager pertenece a una sola vista. Las páginas se piden únicamente vía
// LoadMore y el flag loading garantiza como máximo un fetch en vuelo.
package pager

import (
	"context"
	"errors"
	"sync"

	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/dropDatabas3/hostboard/internal/metrics"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
)

// DefaultLimit es el tamaño de página por defecto.
const DefaultLimit = 40

// ErrAlreadyInitialized se retorna si Initialize se llama dos veces.
var ErrAlreadyInitialized = errors.New("pager: already initialized")

// Page es una página devuelta por el backend. NextCursor vacío = fin.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// Fetcher pide una página bajo un nivel de credencial.
type Fetcher[T any] func(ctx context.Context, tier credtier.Tier, cursor string, limit int) (Page[T], error)

// State es una copia del estado del pager (ListPage).
type State[T any] struct {
	Items   []T
	Cursor  string
	HasMore bool
	Loading bool
}

// Pager es el CursorPager. Seguro para uso concurrente.
type Pager[T any] struct {
	fetch    Fetcher[T]
	resolver *credtier.Resolver
	tiers    []credtier.Tier
	limit    int
	onChange func(State[T])
	onAppend func(Page[T])

	mu          sync.Mutex
	items       []T
	cursor      string
	loading     bool
	initialized bool
	closed      bool
}

// Option configura un Pager.
type Option[T any] func(*Pager[T])

// WithLimit fija el tamaño de página.
func WithLimit[T any](n int) Option[T] {
	return func(p *Pager[T]) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithTiers reemplaza el orden de credenciales (default Primary, Secondary).
func WithTiers[T any](tiers ...credtier.Tier) Option[T] {
	return func(p *Pager[T]) { p.tiers = tiers }
}

// WithResolver reemplaza el Resolver usado para los fetch.
func WithResolver[T any](r *credtier.Resolver) Option[T] {
	return func(p *Pager[T]) { p.resolver = r }
}

// OnChange registra un hook invocado después de cada transición confirmada
// (inicio y fin de fetch, Initialize). Se llama fuera del lock.
func OnChange[T any](fn func(State[T])) Option[T] {
	return func(p *Pager[T]) { p.onChange = fn }
}

// OnAppend registra un hook invocado solo cuando una página se anexó con
// éxito, antes del OnChange correspondiente. Se llama fuera del lock.
func OnAppend[T any](fn func(Page[T])) Option[T] {
	return func(p *Pager[T]) { p.onAppend = fn }
}

// New crea un Pager vacío (sin cursor). Usar Initialize para sembrarlo.
func New[T any](fetch Fetcher[T], opts ...Option[T]) *Pager[T] {
	p := &Pager[T]{
		fetch:    fetch,
		resolver: credtier.NewResolver("pager"),
		tiers:    credtier.DefaultTiers,
		limit:    DefaultLimit,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Initialize siembra el estado con la primera página (renderizada del lado
// del servidor). Solo se puede llamar una vez por instancia.
func (p *Pager[T]) Initialize(seed Page[T]) error {
	p.mu.Lock()
	if p.initialized {
		p.mu.Unlock()
		return ErrAlreadyInitialized
	}
	p.initialized = true
	p.items = append(make([]T, 0, len(seed.Items)), seed.Items...)
	p.cursor = seed.NextCursor
	st := p.snapshotLocked()
	p.mu.Unlock()

	p.notify(st)
	return nil
}

// LoadMore pide la siguiente página. Es no-op (sin llamada de red) si no hay
// cursor, si ya hay un fetch en vuelo o si el pager fue cerrado.
//
// En error items y cursor no cambian, loading vuelve a false y el error se
// retorna al caller; el pager sigue usable.
func (p *Pager[T]) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.closed || p.loading || p.cursor == "" {
		p.mu.Unlock()
		return nil
	}
	p.loading = true
	cursor := p.cursor
	st := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(st)

	log := logger.From(ctx).With(logger.Component("pager"), logger.Op("LoadMore"), logger.Cursor(cursor))

	op := func(ctx context.Context, tier credtier.Tier) (Page[T], error) {
		return p.fetch(ctx, tier, cursor, p.limit)
	}
	page, err := credtier.ExecuteWithFallback[Page[T]](ctx, p.resolver, op, isEmptyPage[T], p.tiers...)

	p.mu.Lock()
	p.loading = false
	if p.closed {
		p.mu.Unlock()
		metrics.PagerPages.WithLabelValues("discarded").Inc()
		log.Debug("pager closed while fetching, result discarded")
		return nil
	}
	if err != nil {
		st = p.snapshotLocked()
		p.mu.Unlock()
		metrics.PagerPages.WithLabelValues("failed").Inc()
		log.Warn("load more failed", logger.Err(err))
		p.notify(st)
		return err
	}
	p.items = append(p.items, page.Items...)
	p.cursor = page.NextCursor
	st = p.snapshotLocked()
	p.mu.Unlock()

	metrics.PagerPages.WithLabelValues("appended").Inc()
	log.Debug("page appended", logger.Count(len(page.Items)), logger.Bool("has_more", page.NextCursor != ""))
	if p.onAppend != nil {
		p.onAppend(page)
	}
	p.notify(st)
	return nil
}

// State retorna una copia del estado actual.
func (p *Pager[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// HasMore indica si quedan páginas.
func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor != "" && !p.closed
}

// Loading indica si hay un fetch en vuelo.
func (p *Pager[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Close desmonta el pager: un fetch en vuelo termina pero su resultado se
// descarta, y LoadMore pasa a ser no-op.
func (p *Pager[T]) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Pager[T]) snapshotLocked() State[T] {
	return State[T]{
		Items:   append([]T(nil), p.items...),
		Cursor:  p.cursor,
		HasMore: p.cursor != "",
		Loading: p.loading,
	}
}

func (p *Pager[T]) notify(st State[T]) {
	if p.onChange != nil {
		p.onChange(st)
	}
}

func isEmptyPage[T any](pg Page[T]) bool { return len(pg.Items) == 0 }
