package community

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/hostboard/internal/clock"
	"github.com/dropDatabas3/hostboard/internal/pager"
	"github.com/dropDatabas3/hostboard/internal/scroll"
	"github.com/dropDatabas3/hostboard/internal/search"
)

// ListingConfig parámetros de una vista.
type ListingConfig struct {
	PageSize      int
	DebounceDelay time.Duration
	ScrollMargin  int
	Clock         clock.Clock
}

// View es lo que la vista renderiza.
type View[T any] struct {
	Items   []T
	Loaded  int
	Query   string
	HasMore bool
	Loading bool
	Err     error
}

// Listing une un pager, un trigger de scroll y un debouncer de búsqueda. La
// búsqueda filtra en memoria lo ya cargado; nunca pide páginas.
type Listing[T any] struct {
	pager     *pager.Pager[T]
	obs       scroll.Observer
	debouncer *search.Debouncer
	fields    func(T) []string
	cfg       ListingConfig

	mu       sync.Mutex
	trigger  *scroll.Trigger
	query    string
	lastErr  error
	onChange func(View[T])
	mounted  bool
	closed   bool
}

// NewListing crea la vista. fields devuelve los textos buscables de un item.
func NewListing[T any](fetch pager.Fetcher[T], obs scroll.Observer, fields func(T) []string, cfg ListingConfig) *Listing[T] {
	if cfg.Clock == nil {
		cfg.Clock = clock.System
	}
	l := &Listing[T]{obs: obs, fields: fields, cfg: cfg}
	l.pager = pager.New[T](fetch,
		pager.WithLimit[T](cfg.PageSize),
		pager.WithResolver[T](resolver("listing")),
		pager.OnAppend[T](func(pager.Page[T]) { l.loadSucceeded() }),
		pager.OnChange[T](func(pager.State[T]) { l.changed() }),
	)
	l.debouncer = search.NewDebouncer(cfg.DebounceDelay, l.applyQuery, search.WithClock(cfg.Clock))
	return l
}

// OnChange registra el callback de re-render. Se invoca fuera de locks.
func (l *Listing[T]) OnChange(fn func(View[T])) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Mount siembra la primera página y empieza a observar el sentinel.
func (l *Listing[T]) Mount(ctx context.Context, seed pager.Page[T]) error {
	if err := l.pager.Initialize(seed); err != nil {
		return err
	}

	l.mu.Lock()
	if l.closed || l.mounted {
		l.mu.Unlock()
		return nil
	}
	l.mounted = true
	opts := []scroll.Option{scroll.WithContext(ctx), scroll.WithErrorHandler(l.loadFailed)}
	if l.cfg.ScrollMargin > 0 {
		opts = append(opts, scroll.WithMargin(l.cfg.ScrollMargin))
	}
	l.trigger = scroll.NewTrigger(l.pager, l.obs, opts...)
	t := l.trigger
	l.mu.Unlock()

	t.Start()
	return nil
}

// Search registra un cambio del input de búsqueda.
func (l *Listing[T]) Search(q string) { l.debouncer.Push(q) }

// LoadMore pide la siguiente página a mano (botón "reintentar").
func (l *Listing[T]) LoadMore(ctx context.Context) error {
	err := l.pager.LoadMore(ctx)
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
	if err != nil {
		l.changed()
	}
	return err
}

func (l *Listing[T]) applyQuery(q string) {
	l.mu.Lock()
	l.query = q
	l.mu.Unlock()
	l.changed()
}

// loadSucceeded limpia el error de una carga anterior: la vista deja de
// mostrar "no se pudo cargar" apenas entra una página.
func (l *Listing[T]) loadSucceeded() {
	l.mu.Lock()
	l.lastErr = nil
	l.mu.Unlock()
}

func (l *Listing[T]) loadFailed(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
	l.changed()
}

// Visible retorna los items cargados que pasan el filtro vigente.
func (l *Listing[T]) Visible() []T {
	return l.View().Items
}

// View arma la vista actual.
func (l *Listing[T]) View() View[T] {
	st := l.pager.State()
	l.mu.Lock()
	q, err := l.query, l.lastErr
	l.mu.Unlock()

	if st.Loading {
		err = nil
	}
	return View[T]{
		Items:   search.Filter(st.Items, q, l.fields),
		Loaded:  len(st.Items),
		Query:   q,
		HasMore: st.HasMore,
		Loading: st.Loading,
		Err:     err,
	}
}

func (l *Listing[T]) changed() {
	l.mu.Lock()
	fn, closed := l.onChange, l.closed
	l.mu.Unlock()
	if fn == nil || closed {
		return
	}
	fn(l.View())
}

// Close desmonta la vista: deja de observar, cancela la búsqueda pendiente y
// descarta cualquier página que llegue después. Espera a los fetch en vuelo.
func (l *Listing[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	t := l.trigger
	l.mu.Unlock()

	l.debouncer.Close()
	l.pager.Close()
	if t != nil {
		t.Close()
		t.Wait()
	}
}
