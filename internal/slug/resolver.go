package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dropDatabas3/hostboard/internal/clock"
	"github.com/dropDatabas3/hostboard/internal/metrics"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
	"go.uber.org/zap"
)

// DefaultMaxProbes es cuántos sufijos numéricos se prueban ante colisión.
const DefaultMaxProbes = 5

// ErrLookupUnavailable (SlugLookupUnavailable) indica que no hay capacidad de
// búsqueda o que falló. No es fatal: Resolve cae a sufijo temporal.
var ErrLookupUnavailable = errors.New("slug: uniqueness lookup unavailable")

// Lookup consulta si ya existe un registro con ese slug exacto.
type Lookup interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// LookupFunc adapta una función a Lookup.
type LookupFunc func(ctx context.Context, slug string) (bool, error)

func (f LookupFunc) SlugExists(ctx context.Context, slug string) (bool, error) { return f(ctx, slug) }

// Mode describe cómo se obtuvo el slug resuelto.
type Mode string

const (
	ModeUnique      Mode = "unique"
	ModeSuffixed    Mode = "suffixed"
	ModeTimestamped Mode = "timestamped"
)

// Claim es el SlugClaim: base derivada del título y slug resuelto.
// Resolved es único al momento de la consulta, no transaccionalmente.
type Claim struct {
	Base     string `json:"base"`
	Resolved string `json:"resolved"`
	Mode     Mode   `json:"mode"`
}

// Resolver es el SlugUniquenessResolver.
type Resolver struct {
	lookup    Lookup
	clk       clock.Clock
	maxProbes int

	mu   sync.Mutex
	last int64
}

// Option configura un Resolver.
type Option func(*Resolver)

// WithClock reemplaza el reloj usado para sufijos temporales.
func WithClock(c clock.Clock) Option { return func(r *Resolver) { r.clk = c } }

// WithMaxProbes fija cuántos sufijos -2..-N se prueban. 1 = solo "-2".
func WithMaxProbes(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxProbes = n
		}
	}
}

// NewResolver crea un Resolver. lookup puede ser nil (capacidad ausente).
func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{lookup: lookup, clk: clock.System, maxProbes: DefaultMaxProbes}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve deriva el slug base y garantiza (best-effort) su unicidad.
func (r *Resolver) Resolve(ctx context.Context, title string) (Claim, error) {
	base := Slugify(title)
	log := logger.From(ctx).With(logger.Component("slug"), logger.Op("Resolve"), logger.Slug(base))

	if r.lookup == nil {
		return r.timestamped(base, ErrLookupUnavailable, log), nil
	}

	taken, err := r.lookup.SlugExists(ctx, base)
	if err != nil {
		if ctx.Err() != nil {
			return Claim{}, ctx.Err()
		}
		return r.timestamped(base, fmt.Errorf("%w: %v", ErrLookupUnavailable, err), log), nil
	}
	if !taken {
		metrics.SlugResolutions.WithLabelValues(string(ModeUnique)).Inc()
		return Claim{Base: base, Resolved: base, Mode: ModeUnique}, nil
	}

	for n := 2; n <= r.maxProbes+1; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		taken, err := r.lookup.SlugExists(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return Claim{}, ctx.Err()
			}
			return r.timestamped(base, fmt.Errorf("%w: %v", ErrLookupUnavailable, err), log), nil
		}
		if !taken {
			metrics.SlugResolutions.WithLabelValues(string(ModeSuffixed)).Inc()
			log.Debug("slug collision resolved", logger.String("resolved", candidate))
			return Claim{Base: base, Resolved: candidate, Mode: ModeSuffixed}, nil
		}
	}

	log.Info("all numeric suffixes taken, using time-derived suffix", logger.Int("probes", r.maxProbes))
	metrics.SlugResolutions.WithLabelValues(string(ModeTimestamped)).Inc()
	return Claim{Base: base, Resolved: base + "-" + r.nextSuffix(), Mode: ModeTimestamped}, nil
}

func (r *Resolver) timestamped(base string, cause error, log *zap.Logger) Claim {
	log.Warn("slug lookup unavailable, falling back to time-derived suffix", logger.Err(cause))
	metrics.SlugResolutions.WithLabelValues(string(ModeTimestamped)).Inc()
	return Claim{Base: base, Resolved: base + "-" + r.nextSuffix(), Mode: ModeTimestamped}
}

// nextSuffix retorna un sufijo base36 derivado de la hora en milisegundos,
// estrictamente creciente dentro de este Resolver.
func (r *Resolver) nextSuffix() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.clk.Now().UnixMilli()
	if v <= r.last {
		v = r.last + 1
	}
	r.last = v
	return strconv.FormatInt(v, 36)
}
