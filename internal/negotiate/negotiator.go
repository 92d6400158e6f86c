package negotiate

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/dropDatabas3/hostboard/internal/metrics"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
	"github.com/google/uuid"
)

// Attempt es lo que recibe el Executor en cada intento.
type Attempt struct {
	Candidate Candidate
	Payload   map[string]any
	// Index es la posición 1-based del intento en la corrida.
	Index int
	// IdempotencyKey es el mismo para todos los intentos de una corrida; los
	// backends que lo soportan lo usan para deduplicar un éxito mal clasificado.
	IdempotencyKey string
}

// Executor ejecuta una escritura concreta.
type Executor interface {
	Execute(ctx context.Context, a Attempt) (json.RawMessage, error)
}

// ExecutorFunc adapta una función a Executor.
type ExecutorFunc func(ctx context.Context, a Attempt) (json.RawMessage, error)

func (f ExecutorFunc) Execute(ctx context.Context, a Attempt) (json.RawMessage, error) {
	return f(ctx, a)
}

// BuildFunc mapea el mismo contenido lógico al payload de un candidato.
type BuildFunc func(c Candidate) map[string]any

// Result es el éxito de una corrida.
type Result struct {
	Winner         Candidate
	Response       json.RawMessage
	Trail          Trail
	IdempotencyKey string
}

// Negotiator es el MutationNegotiator.
type Negotiator struct {
	exec      Executor
	override  Candidate
	fallbacks []Candidate
	newKey    func() string
}

// Option configura un Negotiator.
type Option func(*Negotiator)

// WithOverride fija el candidato configurado externamente; se prueba primero.
func WithOverride(c Candidate) Option {
	return func(n *Negotiator) { n.override = c }
}

// WithKeyFunc reemplaza el generador de idempotency keys (tests).
func WithKeyFunc(fn func() string) Option {
	return func(n *Negotiator) { n.newKey = fn }
}

// New crea un Negotiator con la lista estática de fallbacks.
func New(exec Executor, fallbacks []Candidate, opts ...Option) *Negotiator {
	n := &Negotiator{
		exec:      exec,
		fallbacks: append([]Candidate(nil), fallbacks...),
		newKey:    func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Candidates retorna el orden efectivo: override (si hay) y luego los
// fallbacks, sin repetir un candidato ya listado.
func (n *Negotiator) Candidates() []Candidate {
	out := make([]Candidate, 0, len(n.fallbacks)+1)
	seen := make(map[Candidate]bool, len(n.fallbacks)+1)
	add := func(c Candidate) {
		if c.IsZero() || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}
	add(n.override)
	for _, c := range n.fallbacks {
		add(c)
	}
	return out
}

// Negotiate prueba los candidatos en orden, uno por vez. El primero que
// devuelve una respuesta no nula y no vacía gana y corta la corrida. Si todos
// fallan retorna *ExhaustedError con el trail completo.
func (n *Negotiator) Negotiate(ctx context.Context, build BuildFunc) (*Result, error) {
	candidates := n.Candidates()
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	key := n.newKey()
	log := logger.From(ctx).With(logger.Component("negotiate"), logger.Op("Negotiate"), logger.String("idempotency_key", key))

	trail := make(Trail, 0, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, &AbortedError{Trail: trail, Err: err}
		}
		clog := log.With(logger.Attempt(i+1), logger.Operation(c.OperationID), logger.FieldKey(c.PayloadFieldKey))

		resp, err := n.exec.Execute(ctx, Attempt{
			Candidate:      c,
			Payload:        build(c),
			Index:          i + 1,
			IdempotencyKey: key,
		})
		if msg, ok := classify(resp, err); !ok {
			trail = append(trail, Outcome{Candidate: c, Message: msg})
			metrics.NegotiationAttempts.WithLabelValues(c.OperationID, c.PayloadFieldKey, "failure").Inc()
			clog.Info("write candidate rejected", logger.String("reason", msg))
			continue
		}

		trail = append(trail, Outcome{Candidate: c, Success: true, Response: resp})
		metrics.NegotiationAttempts.WithLabelValues(c.OperationID, c.PayloadFieldKey, "success").Inc()
		clog.Info("write candidate accepted", logger.Int("failed_before", trail.Failures()))
		return &Result{Winner: c, Response: resp, Trail: trail, IdempotencyKey: key}, nil
	}

	metrics.NegotiationExhausted.Inc()
	log.Error("schema negotiation exhausted", logger.Count(len(trail)), logger.String("trail", trail.String()))
	return nil, &ExhaustedError{Trail: trail}
}

// classify decide si un intento cuenta como éxito. Retorna el mensaje de
// diagnóstico cuando no.
func classify(resp json.RawMessage, err error) (string, bool) {
	if err != nil {
		return shorten(err.Error()), false
	}
	trimmed := bytes.TrimSpace(resp)
	switch string(trimmed) {
	case "", "null", "{}", "[]", `""`:
		return "empty response", false
	}
	if !json.Valid(trimmed) {
		return "response is not valid JSON", false
	}
	return "", true
}
