package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hostboard/internal/community"
	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/draft"
	"github.com/dropDatabas3/hostboard/internal/negotiate"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
)

// FromError convierte cualquier error de las capas inferiores en un AppError.
// Lo que no se reconoce es un error interno que conserva la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ve *community.ValidationError
	if errors.As(err, &ve) {
		e := ErrValidation.WithCause(err)
		e.Fields = ve.Fields
		return e
	}

	var ue *community.UnauthenticatedError
	if errors.As(err, &ue) {
		e := ErrSignInRequired.WithCause(err)
		e.SignInURL = ue.SignInURL
		return e
	}

	var ne *negotiate.ExhaustedError
	if errors.As(err, &ne) {
		return negotiationError(ne)
	}

	switch {
	case errors.Is(err, repository.ErrInvalidCursor):
		return ErrInvalidCursor.WithCause(err)
	case errors.Is(err, draft.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return ErrNotFound.WithCause(err)
	case errors.Is(err, draft.ErrNoOwner):
		return ErrSignInRequired.WithCause(err)
	case errors.Is(err, draft.ErrInvalidID):
		return ErrInvalidParameter.WithCause(err).WithDetail("contentID")
	case errors.Is(err, credtier.ErrExhausted):
		return ErrCouldNotLoad.WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return ErrGatewayTimeout.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

func negotiationError(ne *negotiate.ExhaustedError) *AppError {
	e := ErrCouldNotCreate.WithCause(ne)
	e.Attempts = make([]Attempt, len(ne.Trail))
	for i, o := range ne.Trail {
		e.Attempts[i] = Attempt{
			Operation: o.Candidate.OperationID,
			Field:     o.Candidate.PayloadFieldKey,
			Success:   o.Success,
			Reason:    o.Message,
		}
	}
	e.Diagnostics = ne.Trail.String()
	return e
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr)
}

// Respond loguea y escribe el error. Un navegador que pidió HTML y necesita
// iniciar sesión recibe un 303 hacia el login en lugar del JSON.
func Respond(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	log := logger.From(r.Context())
	switch {
	case appErr.HTTPStatus >= 500:
		log.Error("request failed", logger.String("code", appErr.Code), logger.Err(appErr.Err))
	case appErr.HTTPStatus >= 400:
		log.Debug("request rejected", logger.String("code", appErr.Code), logger.Err(appErr.Err))
	}

	if appErr.SignInURL != "" && wantsHTML(r) {
		http.Redirect(w, r, appErr.SignInURL, http.StatusSeeOther)
		return
	}
	WriteError(w, appErr)
}

// WriteNegotiationError escribe el trail completo de una negociación fallida.
func WriteNegotiationError(w http.ResponseWriter, ne *negotiate.ExhaustedError) {
	WriteError(w, negotiationError(ne))
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
