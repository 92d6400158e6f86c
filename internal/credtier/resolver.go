package credtier

import (
	"context"

	"github.com/dropDatabas3/hostboard/internal/metrics"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
)

// Op es una lectura ejecutable bajo un nivel de credencial.
type Op[R any] func(ctx context.Context, tier Tier) (R, error)

// Resolver agrupa la configuración compartida por las lecturas con fallback.
// El valor cero es utilizable.
type Resolver struct {
	// Component se agrega a los logs (ej: "feed", "pager").
	Component string
}

// NewResolver crea un Resolver para un componente.
func NewResolver(component string) *Resolver {
	return &Resolver{Component: component}
}

// ExecuteWithFallback ejecuta op bajo cada nivel en orden hasta obtener un
// resultado confiable. isEmpty puede ser nil (ningún resultado se considera vacío).
//
// Los niveles se prueban estrictamente en secuencia: el nivel N+1 nunca
// arranca antes de conocer el resultado del N. El error de un nivel que
// fue recuperado por el siguiente no llega al caller.
func ExecuteWithFallback[R any](ctx context.Context, r *Resolver, op Op[R], isEmpty func(R) bool, tiers ...Tier) (R, error) {
	var zero R
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	if r == nil {
		r = &Resolver{}
	}
	log := logger.From(ctx).With(logger.Layer("credtier"), logger.Component(r.Component))

	var failures []TierFailure
	for i, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		last := i == len(tiers)-1

		res, err := op(ctx, tier)
		if err != nil {
			failures = append(failures, TierFailure{Tier: tier, Err: err})
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			if last {
				break
			}
			log.Warn("read failed, trying next tier", logger.Tier(tier.String()), logger.Err(err))
			metrics.TierFallbacks.WithLabelValues(tier.String(), "error").Inc()
			continue
		}

		if !last && isEmpty != nil && isEmpty(res) {
			failures = append(failures, TierFailure{Tier: tier, Empty: true})
			log.Info("empty result, probing next tier", logger.Tier(tier.String()))
			metrics.TierFallbacks.WithLabelValues(tier.String(), "empty").Inc()
			continue
		}

		if len(failures) > 0 {
			log.Debug("read recovered by fallback", logger.Tier(tier.String()))
		}
		return res, nil
	}

	metrics.TierExhausted.Inc()
	exhausted := &ExhaustedError{Failures: failures}
	log.Error("all credential tiers failed", logger.Err(exhausted))
	return zero, exhausted
}
