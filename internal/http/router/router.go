// Package router arma el árbol de rutas del servicio sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/hostboard/internal/auth"
	"github.com/dropDatabas3/hostboard/internal/http/controllers"
	httperrors "github.com/dropDatabas3/hostboard/internal/http/errors"
	mw "github.com/dropDatabas3/hostboard/internal/http/middlewares"
	"github.com/dropDatabas3/hostboard/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Controllers *controllers.Controllers

	// Verifier valida la sesión del usuario. Requerido para rutas de escritura.
	Verifier *auth.Verifier

	// RateLimiter opcional, aplicado a POST /v1/community/questions.
	RateLimiter rate.Limiter

	// MetricsHandler sobrescribe el handler de /metrics (tests).
	MetricsHandler http.Handler
}

// New devuelve el handler raíz con todas las rutas registradas.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, deps)
	registerCommunityRoutes(r, deps)
	registerDraftRoutes(r, deps)
	return r
}

// baseHandler chain común para rutas de la API.
func baseHandler(h http.Handler, extra ...mw.Middleware) http.Handler {
	mws := append([]mw.Middleware{
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithLogging(),
	}, extra...)
	return mw.Chain(h, mws...)
}

func registerHealthRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers

	// GET /readyz - sin logging, muy frecuente
	r.Method(http.MethodGet, "/readyz", mw.Chain(http.HandlerFunc(c.Health.Readyz),
		mw.WithRecover(),
		mw.WithRequestID(),
	))

	metrics := deps.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metrics)
}

func registerCommunityRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers.Questions
	session := mw.WithSession(deps.Verifier)

	r.Method(http.MethodGet, "/v1/community/questions",
		baseHandler(http.HandlerFunc(c.List)))

	create := []mw.Middleware{session}
	if deps.RateLimiter != nil {
		create = append(create, mw.WithRateLimit(deps.RateLimiter, mw.UserRateKey))
	}
	r.Method(http.MethodPost, "/v1/community/questions",
		baseHandler(http.HandlerFunc(c.Create), create...))

	r.Method(http.MethodGet, "/v1/slugs/preview",
		baseHandler(http.HandlerFunc(c.PreviewSlug)))
}

func registerDraftRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers.Drafts
	chain := func(h http.HandlerFunc) http.Handler {
		return baseHandler(h, mw.WithNoStore(), mw.WithSession(deps.Verifier))
	}

	r.Method(http.MethodGet, "/v1/drafts/{contentID}", chain(c.Get))
	r.Method(http.MethodPut, "/v1/drafts/{contentID}", chain(c.Put))
	r.Method(http.MethodDelete, "/v1/drafts/{contentID}", chain(c.Delete))
}
