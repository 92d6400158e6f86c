// Package drafts contiene el controller de borradores del Composer.
package drafts

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hostboard/internal/analytics"
	"github.com/dropDatabas3/hostboard/internal/auth"
	"github.com/dropDatabas3/hostboard/internal/draft"
	"github.com/dropDatabas3/hostboard/internal/http/dto"
	httperrors "github.com/dropDatabas3/hostboard/internal/http/errors"
	"github.com/dropDatabas3/hostboard/internal/http/helpers"
)

// DraftsController maneja /v1/drafts/{contentID}. Cada borrador pertenece al
// usuario de la sesión; sin sesión no hay acceso.
type DraftsController struct {
	store *draft.Store
	sink  analytics.Sink
}

func NewDraftsController(store *draft.Store, sink analytics.Sink) *DraftsController {
	if sink == nil {
		sink = analytics.Nop
	}
	return &DraftsController{store: store, sink: sink}
}

func toResponse(d *draft.Draft) dto.DraftResponse {
	return dto.DraftResponse{ContentID: d.ContentID, Fields: d.Fields, SavedAt: d.SavedAt}
}

// owner devuelve el usuario de la sesión o responde 401.
func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	s := auth.FromContext(r.Context())
	if s == nil || s.UserID == "" {
		httperrors.Respond(w, r, httperrors.ErrSignInRequired)
		return "", false
	}
	return s.UserID, true
}

// Get maneja GET /v1/drafts/{contentID}
func (c *DraftsController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := owner(w, r)
	if !ok {
		return
	}
	d, err := c.store.Load(r.Context(), userID, chi.URLParam(r, "contentID"))
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, toResponse(d))
}

// Put maneja PUT /v1/drafts/{contentID}: sobrescribe el borrador completo.
func (c *DraftsController) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := owner(w, r)
	if !ok {
		return
	}
	var req dto.DraftRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	d, err := c.store.Save(ctx, userID, chi.URLParam(r, "contentID"), req.Fields)
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}

	_ = c.sink.Track(ctx, analytics.Event{Name: analytics.DraftSaved, UserID: userID, ObjectID: d.ContentID})
	helpers.WriteJSON(w, http.StatusOK, toResponse(d))
}

// Delete maneja DELETE /v1/drafts/{contentID}
func (c *DraftsController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := owner(w, r)
	if !ok {
		return
	}
	if err := c.store.Delete(r.Context(), userID, chi.URLParam(r, "contentID")); err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
