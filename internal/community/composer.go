package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dropDatabas3/hostboard/internal/analytics"
	"github.com/dropDatabas3/hostboard/internal/auth"
	"github.com/dropDatabas3/hostboard/internal/draft"
	"github.com/dropDatabas3/hostboard/internal/negotiate"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
	"github.com/dropDatabas3/hostboard/internal/slug"
)

// Límites de validación.
const (
	MaxTitleLen = 200
	MaxBodyLen  = 20000
	MaxTags     = 5
	MaxTagLen   = 32
)

// Input es el formulario de nueva pregunta.
type Input struct {
	ContentID string   `json:"contentId,omitempty"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags,omitempty"`
}

// ValidationError lista los campos inválidos. Nunca implica tráfico de red.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "community: invalid input (" + strings.Join(parts, ", ") + ")"
}

// UnauthenticatedError un intento de escritura sin sesión. SignInURL preserva
// el destino original.
type UnauthenticatedError struct {
	SignInURL string
}

func (e *UnauthenticatedError) Error() string {
	return "community: sign in required"
}

// Validate normaliza y valida el input in place.
func Validate(in *Input) error {
	fields := map[string]string{}

	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	switch n := utf8.RuneCountInString(in.Title); {
	case n == 0:
		fields["title"] = "required"
	case n > MaxTitleLen:
		fields["title"] = fmt.Sprintf("at most %d characters", MaxTitleLen)
	}
	switch n := utf8.RuneCountInString(in.Body); {
	case n == 0:
		fields["body"] = "required"
	case n > MaxBodyLen:
		fields["body"] = fmt.Sprintf("at most %d characters", MaxBodyLen)
	}

	tags := make([]string, 0, len(in.Tags))
	seen := map[string]bool{}
	for _, t := range in.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTagLen {
			fields["tags"] = fmt.Sprintf("each tag at most %d characters", MaxTagLen)
		}
		seen[t] = true
		tags = append(tags, t)
	}
	if len(tags) > MaxTags {
		fields["tags"] = fmt.Sprintf("at most %d tags", MaxTags)
	}
	in.Tags = tags

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Created es el resultado de un submit exitoso.
type Created struct {
	ID             string              `json:"id"`
	Slug           string              `json:"slug"`
	Title          string              `json:"title"`
	SlugMode       slug.Mode           `json:"slugMode"`
	Operation      negotiate.Candidate `json:"operation"`
	Attempts       int                 `json:"attempts"`
	IdempotencyKey string              `json:"idempotencyKey"`
	Trail          negotiate.Trail     `json:"-"`
}

// ComposerOption configura un Composer.
type ComposerOption func(*Composer)

// WithAnalytics fija el sink de eventos.
func WithAnalytics(s analytics.Sink) ComposerOption {
	return func(c *Composer) { c.sink = s }
}

// WithDrafts habilita el borrado del borrador tras el submit.
func WithDrafts(s *draft.Store) ComposerOption {
	return func(c *Composer) { c.drafts = s }
}

// WithSignInURL fija la URL base de login.
func WithSignInURL(base string) ComposerOption {
	return func(c *Composer) { c.signIn = base }
}

// AfterCreate registra un hook post-creación (invalidar caches).
func AfterCreate(fn func(ctx context.Context, c *Created)) ComposerOption {
	return func(c *Composer) { c.after = append(c.after, fn) }
}

// Composer es el flujo "crear contenido".
type Composer struct {
	slugs  *slug.Resolver
	neg    *negotiate.Negotiator
	drafts *draft.Store
	sink   analytics.Sink
	signIn string
	after  []func(ctx context.Context, c *Created)
}

func NewComposer(slugs *slug.Resolver, neg *negotiate.Negotiator, opts ...ComposerOption) *Composer {
	c := &Composer{slugs: slugs, neg: neg, sink: analytics.Nop, signIn: "/sign-in"}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit valida, exige sesión, resuelve el slug y negocia la escritura.
// next es el destino a preservar si hace falta login.
func (c *Composer) Submit(ctx context.Context, sess *auth.Session, in Input, next string) (*Created, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("community.composer"), logger.Op("Submit"))

	if err := Validate(&in); err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID == "" {
		_ = c.sink.Track(ctx, analytics.Event{Name: analytics.SignInRequired, ObjectID: in.ContentID})
		return nil, &UnauthenticatedError{SignInURL: auth.SignInURL(c.signIn, next)}
	}
	ctx = auth.ToContext(ctx, sess)
	log = log.With(logger.UserID(sess.UserID))

	claim, err := c.slugs.Resolve(ctx, in.Title)
	if err != nil {
		return nil, err
	}
	log = log.With(logger.Slug(claim.Resolved))

	res, err := c.neg.Negotiate(ctx, func(cand negotiate.Candidate) map[string]any {
		return map[string]any{
			"title":              in.Title,
			"slug":               claim.Resolved,
			cand.PayloadFieldKey: in.Body,
			"tags":               in.Tags,
			"authorId":           sess.UserID,
		}
	})
	if err != nil {
		props := map[string]any{"slug": claim.Resolved}
		var ex *negotiate.ExhaustedError
		if errors.As(err, &ex) {
			props["attempts"] = len(ex.Trail)
		}
		_ = c.sink.Track(ctx, analytics.Event{Name: analytics.QuestionCreateError, UserID: sess.UserID, ObjectID: in.ContentID, Properties: props})
		return nil, err
	}

	created := &Created{
		Slug:           claim.Resolved,
		Title:          in.Title,
		SlugMode:       claim.Mode,
		Operation:      res.Winner,
		Attempts:       len(res.Trail),
		IdempotencyKey: res.IdempotencyKey,
		Trail:          res.Trail,
	}
	var echo struct {
		ID    string `json:"id"`
		Slug  string `json:"slug"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(res.Response, &echo); err == nil {
		created.ID = echo.ID
		if echo.Slug != "" {
			created.Slug = echo.Slug
		}
		if echo.Title != "" {
			created.Title = echo.Title
		}
	}

	if c.drafts != nil && in.ContentID != "" {
		if err := c.drafts.Delete(ctx, sess.UserID, in.ContentID); err != nil {
			log.Warn("draft cleanup failed", logger.ContentID(in.ContentID), logger.Err(err))
		}
	}
	for _, fn := range c.after {
		fn(ctx, created)
	}
	_ = c.sink.Track(ctx, analytics.Event{
		Name:     analytics.QuestionCreated,
		UserID:   sess.UserID,
		ObjectID: created.ID,
		Properties: map[string]any{
			"slug":      created.Slug,
			"slug_mode": string(created.SlugMode),
			"operation": res.Winner.String(),
			"attempts":  created.Attempts,
		},
	})
	log.Info("question created", logger.String("id", created.ID), logger.Operation(res.Winner.OperationID), logger.Attempt(created.Attempts))
	return created, nil
}
