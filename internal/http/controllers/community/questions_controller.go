// Package community contiene los controllers de la comunidad: listado,
// creación de preguntas y preview de slugs.
package community

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/hostboard/internal/auth"
	"github.com/dropDatabas3/hostboard/internal/community"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/http/dto"
	httperrors "github.com/dropDatabas3/hostboard/internal/http/errors"
	"github.com/dropDatabas3/hostboard/internal/http/helpers"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
	"github.com/dropDatabas3/hostboard/internal/slug"
)

// DefaultReturnTo destino por defecto tras iniciar sesión.
const DefaultReturnTo = "/community/new"

// QuestionsController maneja /v1/community/questions y /v1/slugs/preview.
type QuestionsController struct {
	feed     *community.Feed
	composer *community.Composer
	slugs    *slug.Resolver
}

func NewQuestionsController(feed *community.Feed, composer *community.Composer, slugs *slug.Resolver) *QuestionsController {
	return &QuestionsController{feed: feed, composer: composer, slugs: slugs}
}

// List maneja GET /v1/community/questions?cursor=&limit=
// Sin cursor y sin limit devuelve el seed cacheado.
func (c *QuestionsController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	limit, err := helpers.QueryInt(r, "limit", 0)
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}

	var page dto.QuestionPage
	if cursor == "" && limit == 0 {
		p, err := c.feed.Seed(ctx)
		if err != nil {
			httperrors.Respond(w, r, err)
			return
		}
		page = dto.QuestionPage{Items: p.Items, NextCursor: p.NextCursor}
	} else {
		p, err := c.feed.Page(ctx, cursor, limit)
		if err != nil {
			httperrors.Respond(w, r, err)
			return
		}
		page = dto.QuestionPage{Items: p.Items, NextCursor: p.NextCursor}
	}
	if page.Items == nil {
		page.Items = []repository.Question{}
	}
	page.HasMore = page.NextCursor != ""
	helpers.WriteJSON(w, http.StatusOK, page)
}

// Create maneja POST /v1/community/questions
func (c *QuestionsController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("QuestionsController.Create"))

	var req dto.CreateQuestionRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	next := req.ReturnTo
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = DefaultReturnTo
	}

	created, err := c.composer.Submit(ctx, auth.FromContext(ctx), community.Input{
		ContentID: req.ContentID,
		Title:     req.Title,
		Body:      req.Body,
		Tags:      req.Tags,
	}, next)
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}

	log.Debug("question created", logger.Slug(created.Slug))
	w.Header().Set("Location", "/community/"+created.Slug)
	helpers.WriteJSON(w, http.StatusCreated, dto.CreatedQuestion{
		ID:        created.ID,
		Slug:      created.Slug,
		Title:     created.Title,
		SlugMode:  string(created.SlugMode),
		Operation: created.Operation.String(),
		Attempts:  created.Attempts,
	})
}

// PreviewSlug maneja GET /v1/slugs/preview?title=
func (c *QuestionsController) PreviewSlug(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		httperrors.Respond(w, r, httperrors.ErrInvalidParameter.WithDetail("title"))
		return
	}
	claim, err := c.slugs.Resolve(r.Context(), title)
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SlugPreview{Base: claim.Base, Resolved: claim.Resolved, Mode: string(claim.Mode)})
}
