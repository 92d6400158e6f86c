// Package search implementa el filtrado del listado: un debouncer que colapsa
// ráfagas de tecleo en una sola aplicación y el filtro en memoria que se aplica
// sobre los items ya cargados por el pager.
package search

import (
	"sync"
	"time"

	"github.com/dropDatabas3/hostboard/internal/clock"
)

// DefaultDelay es la ventana de silencio por defecto.
const DefaultDelay = 300 * time.Millisecond

// Debouncer emite solo el último valor recibido dentro de una ventana de
// silencio. Cada Push reinicia la ventana; como máximo una emisión por período.
type Debouncer struct {
	delay time.Duration
	emit  func(string)
	clk   clock.Clock

	mu      sync.Mutex
	gen     uint64
	timer   clock.Timer
	pending string
	closed  bool
}

// Option configura un Debouncer.
type Option func(*Debouncer)

// WithClock reemplaza el reloj (tests).
func WithClock(c clock.Clock) Option {
	return func(d *Debouncer) { d.clk = c }
}

// NewDebouncer crea un debouncer. delay <= 0 usa DefaultDelay.
func NewDebouncer(delay time.Duration, emit func(string), opts ...Option) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d := &Debouncer{delay: delay, emit: emit, clk: clock.System}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Push registra un valor nuevo y reinicia la ventana.
func (d *Debouncer) Push(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = value
	d.timer = d.clk.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire emite el valor pendiente si la generación sigue vigente. Un timer que
// ya había disparado cuando Stop() llegó tarde queda descartado por gen.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.timer = nil
	d.mu.Unlock()

	if d.emit != nil {
		d.emit(v)
	}
}

// Pending indica si hay una emisión programada.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel descarta la emisión programada, si la hay.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Close cancela y desactiva el debouncer. Pushes posteriores se ignoran.
func (d *Debouncer) Close() {
	d.Cancel()
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
