package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/negotiate"
	"github.com/dropDatabas3/hostboard/internal/pager"
)

const listQuestionsQuery = `query ListQuestions($limit: Int, $nextToken: String) {
  listQuestions(limit: $limit, nextToken: $nextToken) {
    items { id slug title body tags authorId createdAt }
    nextToken
  }
}`

const questionsBySlugQuery = `query QuestionsBySlug($slug: String!) {
  questionsBySlug(slug: $slug, limit: 1) { items { id } }
}`

type questionConnection struct {
	Items     []repository.Question `json:"items"`
	NextToken *string               `json:"nextToken"`
}

// ListQuestions lee una página. Un resultado null cuenta como página vacía.
func (c *Client) ListQuestions(ctx context.Context, tier credtier.Tier, cursor string, limit int) (pager.Page[repository.Question], error) {
	vars := map[string]any{"limit": limit}
	if cursor != "" {
		vars["nextToken"] = cursor
	}
	raw, err := c.do(ctx, tier, "listQuestions", request{Query: listQuestionsQuery, Variables: vars}, nil)
	if err != nil {
		return pager.Page[repository.Question]{}, err
	}

	var conn questionConnection
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &conn); err != nil {
			return pager.Page[repository.Question]{}, fmt.Errorf("graph: decode listQuestions: %w", err)
		}
	}
	page := pager.Page[repository.Question]{Items: conn.Items}
	if conn.NextToken != nil {
		page.NextCursor = *conn.NextToken
	}
	return page, nil
}

// SlugExists consulta el índice por slug con la credencial Secondary.
func (c *Client) SlugExists(ctx context.Context, slug string) (bool, error) {
	raw, err := c.do(ctx, credtier.Secondary, "questionsBySlug",
		request{Query: questionsBySlugQuery, Variables: map[string]any{"slug": slug}}, nil)
	if err != nil {
		return false, err
	}
	var conn questionConnection
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &conn); err != nil {
			return false, fmt.Errorf("graph: decode questionsBySlug: %w", err)
		}
	}
	return len(conn.Items) > 0, nil
}

var operationName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MutationDocument arma el documento de escritura para un candidato.
func MutationDocument(op string) (string, error) {
	if !operationName.MatchString(op) {
		return "", fmt.Errorf("%w: %q", repository.ErrUnknownOperation, op)
	}
	r, size := utf8.DecodeRuneInString(op)
	input := string(unicode.ToUpper(r)) + op[size:] + "Input"
	return fmt.Sprintf("mutation Negotiated($input: %s!) {\n  %s(input: $input) { id slug title }\n}", input, op), nil
}

// Execute implementa negotiate.Executor. Las escrituras van siempre con la
// credencial Secondary y el Idempotency-Key de la corrida.
func (c *Client) Execute(ctx context.Context, a negotiate.Attempt) (json.RawMessage, error) {
	doc, err := MutationDocument(a.Candidate.OperationID)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	if key := strings.TrimSpace(a.IdempotencyKey); key != "" {
		h.Set("Idempotency-Key", key)
	}
	return c.do(ctx, credtier.Secondary, a.Candidate.OperationID,
		request{Query: doc, Variables: map[string]any{"input": a.Payload}}, h)
}
