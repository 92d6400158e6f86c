// Package health contiene el service para health checks.
package health

import (
	"context"
	"time"

	"github.com/dropDatabas3/hostboard/internal/http/dto"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Version      string
	Backend      string
	BackendCheck func(ctx context.Context) error // requerido: sin backend no hay servicio
	CacheCheck   func(ctx context.Context) error // opcional: sin cache el servicio está degradado
	Timeout      time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	resp := dto.HealthResponse{
		Status:     "ready",
		Version:    s.deps.Version,
		Backend:    s.deps.Backend,
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}

	if st := s.probe(ctx, s.deps.BackendCheck); st != nil {
		resp.Components["backend"] = *st
		if st.Status != "ok" {
			resp.Status = "unavailable"
			log.Warn("backend check failed", logger.String("error", st.Error))
		}
	}
	if st := s.probe(ctx, s.deps.CacheCheck); st != nil {
		resp.Components["cache"] = *st
		if st.Status != "ok" && resp.Status == "ready" {
			resp.Status = "degraded"
			log.Warn("cache check failed", logger.String("error", st.Error))
		}
	}
	return resp
}

func (s *healthService) probe(ctx context.Context, fn func(context.Context) error) *dto.HealthStatus {
	if fn == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	if err := fn(cctx); err != nil {
		return &dto.HealthStatus{Status: "error", Error: err.Error()}
	}
	return &dto.HealthStatus{Status: "ok"}
}
