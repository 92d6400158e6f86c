// Package scroll dispara la carga de la siguiente página cuando un sentinel
// (marcador al final del listado) entra en vista, con un margen de anticipación
// para esconder la latencia de red.
package scroll

import (
	"context"
	"sync"
)

// DefaultMargin es la anticipación en píxeles lógicos.
const DefaultMargin = 1200

// Target es la superficie del pager que el trigger necesita.
type Target interface {
	HasMore() bool
	Loading() bool
	LoadMore(ctx context.Context) error
}

// Observer reporta la visibilidad del sentinel. fn puede invocarse varias
// veces con el mismo valor; stop deja de observar.
type Observer interface {
	Observe(margin int, fn func(visible bool)) (stop func())
}

// Trigger es el InfiniteScrollTrigger.
//
// Dispara LoadMore en cada entrada en vista si hay más páginas y no hay fetch
// en vuelo. Mientras el sentinel sigue visible no vuelve a disparar hasta que
// el LoadMore anterior termine; si termina bien y el sentinel sigue visible
// (página corta) pide la siguiente.
type Trigger struct {
	target  Target
	obs     Observer
	margin  int
	onError func(error)
	ctx     context.Context

	mu       sync.Mutex
	stop     func()
	visible  bool
	armed    bool
	inflight bool
	started  bool
	closed   bool
	wg       sync.WaitGroup
}

// Option configura un Trigger.
type Option func(*Trigger)

// WithMargin fija el margen de anticipación.
func WithMargin(px int) Option {
	return func(t *Trigger) {
		if px >= 0 {
			t.margin = px
		}
	}
}

// WithErrorHandler recibe los errores de LoadMore (para mostrarlos).
func WithErrorHandler(fn func(error)) Option {
	return func(t *Trigger) { t.onError = fn }
}

// WithContext fija el contexto pasado a LoadMore (logger, deadline).
func WithContext(ctx context.Context) Option {
	return func(t *Trigger) { t.ctx = ctx }
}

// NewTrigger crea un trigger sin empezar a observar.
func NewTrigger(target Target, obs Observer, opts ...Option) *Trigger {
	t := &Trigger{
		target: target,
		obs:    obs,
		margin: DefaultMargin,
		armed:  true,
		ctx:    context.Background(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Margin retorna el margen configurado.
func (t *Trigger) Margin() int { return t.margin }

// Start empieza a observar. Llamadas repetidas no tienen efecto.
func (t *Trigger) Start() {
	t.mu.Lock()
	if t.started || t.closed {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	stop := t.obs.Observe(t.margin, t.handle)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		stop()
		return
	}
	t.stop = stop
	t.mu.Unlock()
}

func (t *Trigger) handle(visible bool) {
	// El target se consulta sin t.mu tomado: nunca se anidan los dos locks.
	ready := visible && t.target.HasMore() && !t.target.Loading()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.visible = visible
	if !visible {
		t.armed = true
		t.mu.Unlock()
		return
	}
	if !t.armed || t.inflight || !ready {
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.inflight = true
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		t.settle(t.target.LoadMore(t.ctx))
	}()
}

func (t *Trigger) settle(err error) {
	t.mu.Lock()
	t.inflight = false
	t.armed = true
	if t.closed {
		t.mu.Unlock()
		return
	}
	again := err == nil && t.visible
	t.mu.Unlock()

	if err != nil {
		if t.onError != nil {
			t.onError(err)
		}
		return
	}
	if again {
		t.handle(true)
	}
}

// Close deja de observar. Un LoadMore en vuelo termina por su cuenta, pero
// el trigger no vuelve a invocar nada.
func (t *Trigger) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	stop := t.stop
	t.stop = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Wait bloquea hasta que no haya LoadMore en vuelo.
func (t *Trigger) Wait() { t.wg.Wait() }
