package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hostboard/internal/analytics"
	"github.com/dropDatabas3/hostboard/internal/auth"
	"github.com/dropDatabas3/hostboard/internal/cache"
	"github.com/dropDatabas3/hostboard/internal/config"
	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/negotiate"
	"github.com/dropDatabas3/hostboard/internal/pager"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeBackend struct {
	mu          sync.Mutex
	questions   []repository.Question
	slugs       map[string]bool
	failPrimary bool
	failAll     bool
	reject      map[string]bool
	attempts    []negotiate.Attempt
}

var _ repository.QuestionRepository = (*fakeBackend)(nil)

func (f *fakeBackend) ListQuestions(_ context.Context, tier credtier.Tier, _ string, _ int) (pager.Page[repository.Question], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || (f.failPrimary && tier == credtier.Primary) {
		return pager.Page[repository.Question]{}, errors.New("unauthorized")
	}
	return pager.Page[repository.Question]{Items: append([]repository.Question(nil), f.questions...)}, nil
}

func (f *fakeBackend) SlugExists(_ context.Context, s string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slugs[s], nil
}

func (f *fakeBackend) Execute(_ context.Context, a negotiate.Attempt) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, a)
	if f.reject[a.Candidate.String()] || f.reject["*"] {
		return nil, errors.New(`Unknown type "` + a.Candidate.OperationID + `Input"`)
	}
	return json.Marshal(map[string]any{"id": "q-1", "slug": a.Payload["slug"], "title": a.Payload["title"]})
}

func (f *fakeBackend) Ping(context.Context) error {
	if f.failAll {
		return errors.New("down")
	}
	return nil
}

func (f *fakeBackend) Close() {}

func testConfig() *config.Config {
	c := &config.Config{}
	c.Backend.Driver = "graph"
	c.Cache.Driver = "memory"
	c.Auth.JWTSecret = testSecret
	c.Auth.SignInURL = "https://hostboard.test/sign-in"
	c.Listing.PageSize = 10
	c.Listing.MaxLimit = 50
	c.Listing.SeedTTL = time.Minute
	c.Slug.MaxProbes = 3
	c.Drafts.TTL = time.Hour
	return c
}

type harness struct {
	t       *testing.T
	h       http.Handler
	backend *fakeBackend
	sink    *analytics.Capture
	signer  *auth.Verifier
	token   string
}

func newHarness(t *testing.T, cfg *config.Config, backend *fakeBackend) *harness {
	t.Helper()
	verifier := auth.NewVerifier(testSecret, "")
	tok, err := verifier.Sign("user-1", time.Hour)
	require.NoError(t, err)

	sink := &analytics.Capture{}
	h, err := Build(Deps{
		Config:         cfg,
		Backend:        backend,
		Cache:          cache.NewMemory(""),
		Sink:           sink,
		Verifier:       verifier,
		MetricsHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)
	return &harness{t: t, h: h, backend: backend, sink: sink, signer: verifier, token: tok}
}

func (hs *harness) do(method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	hs.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(hs.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

func (hs *harness) authed() map[string]string {
	return map[string]string{"Authorization": "Bearer " + hs.token}
}

// as firma un token para otro usuario.
func (hs *harness) as(userID string) map[string]string {
	hs.t.Helper()
	tok, err := hs.signer.Sign(userID, time.Hour)
	require.NoError(hs.t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestListQuestions_FallsBackToSecondary(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{
		failPrimary: true,
		questions:   []repository.Question{{ID: "1", Title: "Hola"}},
	})

	rec := hs.do(http.MethodGet, "/v1/community/questions?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Len(t, out["items"], 1)
	assert.Equal(t, false, out["hasMore"])
}

func TestListQuestions_BothTiersFail(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{failAll: true})

	rec := hs.do(http.MethodGet, "/v1/community/questions", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "COULD_NOT_LOAD", out["code"])
	assert.Equal(t, true, out["retryable"])
}

func TestListQuestions_InvalidLimit(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{})
	rec := hs.do(http.MethodGet, "/v1/community/questions?limit=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateQuestion_RequiresSignIn(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{})
	body := map[string]any{"title": "Hello world", "body": "text", "returnTo": "/community/new?draft=1"}

	rec := hs.do(http.MethodPost, "/v1/community/questions", body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "SIGN_IN_REQUIRED", out["code"])
	assert.Contains(t, out["sign_in_url"], "https://hostboard.test/sign-in?next=")
	assert.Empty(t, hs.backend.attempts)
	assert.Equal(t, []string{analytics.SignInRequired}, hs.sink.Names())

	rec = hs.do(http.MethodPost, "/v1/community/questions", body, map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://hostboard.test/sign-in"))
}

func TestCreateQuestion_InvalidToken(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{})
	rec := hs.do(http.MethodPost, "/v1/community/questions",
		map[string]any{"title": "t", "body": "b"},
		map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", decode(t, rec)["code"])
}

func TestCreateQuestion_Validation(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{})
	rec := hs.do(http.MethodPost, "/v1/community/questions",
		map[string]any{"title": "  ", "body": ""}, hs.authed())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", out["code"])
	fields := out["fields"].(map[string]any)
	assert.Equal(t, "required", fields["title"])
	assert.Equal(t, "required", fields["body"])
}

func TestCreateQuestion_NegotiatesAndResolvesSlug(t *testing.T) {
	backend := &fakeBackend{
		slugs: map[string]bool{"hello-world": true},
		reject: map[string]bool{
			"createQuestion(body)":    true,
			"createQuestion(content)": true,
		},
	}
	hs := newHarness(t, testConfig(), backend)

	rec := hs.do(http.MethodPost, "/v1/community/questions",
		map[string]any{"title": "Hello World", "body": "Cuerpo", "tags": []string{"Go", "go"}}, hs.authed())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, "q-1", out["id"])
	assert.Equal(t, "hello-world-2", out["slug"])
	assert.Equal(t, "suffixed", out["slugMode"])
	assert.Equal(t, "createCommunityQuestion(body)", out["operation"])
	assert.EqualValues(t, 3, out["attempts"])
	assert.Equal(t, "/community/hello-world-2", rec.Header().Get("Location"))

	require.Len(t, backend.attempts, 3)
	key := backend.attempts[0].IdempotencyKey
	for _, a := range backend.attempts {
		assert.Equal(t, key, a.IdempotencyKey)
	}
	assert.Equal(t, []any{"go"}, toAny(backend.attempts[2].Payload["tags"]))
	assert.Contains(t, hs.sink.Names(), analytics.QuestionCreated)
}

func toAny(v any) []any {
	switch s := v.(type) {
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	case []any:
		return s
	}
	return nil
}

func TestCreateQuestion_NegotiationExhausted(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{reject: map[string]bool{"*": true}})

	rec := hs.do(http.MethodPost, "/v1/community/questions",
		map[string]any{"title": "T", "body": "B"}, hs.authed())
	require.Equal(t, http.StatusBadGateway, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "SCHEMA_NEGOTIATION_EXHAUSTED", out["code"])
	attempts := out["attempts"].([]any)
	assert.Len(t, attempts, len(negotiate.DefaultCandidates))
	first := attempts[0].(map[string]any)
	assert.Equal(t, "createQuestion", first["operation"])
	assert.Equal(t, "body", first["field"])
	assert.Contains(t, out["diagnostics"], "1. createQuestion(body)")
	assert.Contains(t, hs.sink.Names(), analytics.QuestionCreateError)
}

func TestCreateQuestion_OverrideTriedFirst(t *testing.T) {
	cfg := testConfig()
	cfg.Negotiation.Override = "createPost:text"
	backend := &fakeBackend{}
	hs := newHarness(t, cfg, backend)

	rec := hs.do(http.MethodPost, "/v1/community/questions",
		map[string]any{"title": "T", "body": "B"}, hs.authed())
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, backend.attempts, 1)
	assert.Equal(t, "B", backend.attempts[0].Payload["text"])
}

func TestCreateQuestion_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.CreateLimit = 1
	cfg.Rate.Window = time.Minute
	hs := newHarness(t, cfg, &fakeBackend{})

	body := map[string]any{"title": "T", "body": "B"}
	require.Equal(t, http.StatusCreated, hs.do(http.MethodPost, "/v1/community/questions", body, hs.authed()).Code)
	rec := hs.do(http.MethodPost, "/v1/community/questions", body, hs.authed())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decode(t, rec)["code"])
}

func TestSlugPreview(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{slugs: map[string]bool{"hola-mundo": true}})

	rec := hs.do(http.MethodGet, "/v1/slugs/preview?title=Hola%20Mundo", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "hola-mundo", out["base"])
	assert.Equal(t, "hola-mundo-2", out["resolved"])

	rec = hs.do(http.MethodGet, "/v1/slugs/preview", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDrafts_Lifecycle(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{})

	rec := hs.do(http.MethodGet, "/v1/drafts/abc", nil, hs.authed())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hs.do(http.MethodPut, "/v1/drafts/abc",
		map[string]any{"fields": map[string]string{"title": "Borrador"}}, hs.authed())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = hs.do(http.MethodGet, "/v1/drafts/abc", nil, hs.authed())
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Borrador", out["fields"].(map[string]any)["title"])

	rec = hs.do(http.MethodDelete, "/v1/drafts/abc", nil, hs.authed())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = hs.do(http.MethodGet, "/v1/drafts/abc", nil, hs.authed())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Contains(t, hs.sink.Names(), analytics.DraftSaved)
}

func TestDrafts_RequireSession(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{})

	cases := []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPut, map[string]any{"fields": map[string]string{"title": "x"}}},
		{http.MethodDelete, nil},
	}
	for _, tc := range cases {
		rec := hs.do(tc.method, "/v1/drafts/abc", tc.body, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, tc.method)
		assert.Equal(t, "SIGN_IN_REQUIRED", decode(t, rec)["code"], tc.method)
	}
	assert.NotContains(t, hs.sink.Names(), analytics.DraftSaved)
}

func TestDrafts_AreIsolatedBetweenUsers(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{})
	alice, bob := hs.as("user-a"), hs.as("user-b")

	rec := hs.do(http.MethodPut, "/v1/drafts/shared",
		map[string]any{"fields": map[string]string{"body": "privado de A"}}, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = hs.do(http.MethodGet, "/v1/drafts/shared", nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// el DELETE de B no alcanza el borrador de A
	rec = hs.do(http.MethodDelete, "/v1/drafts/shared", nil, bob)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = hs.do(http.MethodGet, "/v1/drafts/shared", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "privado de A", decode(t, rec)["fields"].(map[string]any)["body"])
}

func TestDraftDeletedAfterCreate(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{})
	other := hs.as("user-2")

	for _, hdr := range []map[string]string{hs.authed(), other} {
		rec := hs.do(http.MethodPut, "/v1/drafts/c-1", map[string]any{"fields": map[string]string{"body": "x"}}, hdr)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := hs.do(http.MethodPost, "/v1/community/questions",
		map[string]any{"contentId": "c-1", "title": "T", "body": "B"}, hs.authed())
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, "/v1/drafts/c-1", nil, hs.authed()).Code)
	// solo se limpia el borrador del autor
	assert.Equal(t, http.StatusOK, hs.do(http.MethodGet, "/v1/drafts/c-1", nil, other).Code)
}

func TestReadyzAndNotFound(t *testing.T) {
	hs := newHarness(t, testConfig(), &fakeBackend{})

	rec := hs.do(http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])

	rec = hs.do(http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decode(t, rec)["code"])

	rec = hs.do(http.MethodPatch, "/v1/drafts/abc", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	down := newHarness(t, testConfig(), &fakeBackend{failAll: true})
	rec = down.do(http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
