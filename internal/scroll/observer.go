package scroll

import "sync"

// Visible reporta si un sentinel ubicado en sentinelAt está dentro del
// viewport [offset, offset+height) extendido margin unidades hacia abajo.
func Visible(offset, height, sentinelAt, margin int) bool {
	return sentinelAt <= offset+height+margin && sentinelAt >= offset
}

// GeometryObserver es un Observer alimentado con la geometría del viewport.
// Cada Update notifica al callback, igual que un IntersectionObserver que
// dispara varias veces durante un mismo período visible.
type GeometryObserver struct {
	mu     sync.Mutex
	fn     func(bool)
	margin int
}

// Observe implementa Observer.
func (o *GeometryObserver) Observe(margin int, fn func(bool)) func() {
	o.mu.Lock()
	o.fn = fn
	o.margin = margin
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		o.fn = nil
		o.mu.Unlock()
	}
}

// Update informa la geometría actual.
func (o *GeometryObserver) Update(offset, height, sentinelAt int) {
	o.mu.Lock()
	fn := o.fn
	margin := o.margin
	o.mu.Unlock()
	if fn != nil {
		fn(Visible(offset, height, sentinelAt, margin))
	}
}

// Observing indica si hay un callback registrado.
func (o *GeometryObserver) Observing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fn != nil
}
