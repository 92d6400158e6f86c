package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/hostboard/internal/auth"
	httperrors "github.com/dropDatabas3/hostboard/internal/http/errors"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
)

// SessionCookie nombre de la cookie de sesión (alternativa al header Bearer).
const SessionCookie = "hb_session"

func tokenFrom(r *http.Request) string {
	if tok := auth.BearerToken(r.Header.Get("Authorization")); tok != "" {
		return tok
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// WithSession resuelve la sesión si hay token. Sin token sigue como anónimo;
// un token presente pero inválido es 401 (no se degrada a anónimo).
func WithSession(v *auth.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := tokenFrom(r)
			if tok == "" || v == nil {
				next.ServeHTTP(w, r)
				return
			}
			s, err := v.Verify(tok)
			if err != nil {
				httperrors.Respond(w, r, httperrors.ErrTokenInvalid.WithCause(err))
				return
			}
			ctx := auth.ToContext(r.Context(), s)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(s.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
