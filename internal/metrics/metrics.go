// Package metrics define los collectors Prometheus de hostboard.
//
// Viven en un paquete propio para que credtier, pager, negotiate y el router
// HTTP puedan incrementarlos sin ciclos de import. Los collectors existen desde
// el arranque; Register solo los expone en un registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	TierFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostboard_tier_fallbacks_total",
		Help: "Lecturas que pasaron al siguiente nivel de credencial",
	}, []string{"from", "reason"}) // reason: error|empty

	TierExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostboard_tier_exhausted_total",
		Help: "Lecturas que fallaron en todos los niveles de credencial",
	})

	PagerPages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostboard_pager_pages_total",
		Help: "Páginas pedidas por los pagers, por resultado",
	}, []string{"result"}) // result: appended|failed|discarded

	NegotiationAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostboard_negotiation_attempts_total",
		Help: "Intentos de escritura por candidato y resultado",
	}, []string{"operation", "field", "result"})

	NegotiationExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostboard_negotiation_exhausted_total",
		Help: "Negociaciones donde ningún candidato tuvo éxito",
	})

	SlugResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostboard_slug_resolutions_total",
		Help: "Slugs resueltos por modo",
	}, []string{"mode"}) // mode: unique|suffixed|timestamped

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostboard_http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hostboard_http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func all() []prometheus.Collector {
	return []prometheus.Collector{
		TierFallbacks,
		TierExhausted,
		PagerPages,
		NegotiationAttempts,
		NegotiationExhausted,
		SlugResolutions,
		HTTPRequests,
		HTTPDuration,
	}
}

// Register registra todos los collectors (DefaultRegisterer si reg es nil).
// Registrar dos veces el mismo registry no es un error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range all() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// ObserveHTTP registra un request terminado. route es el patrón, no el path.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
