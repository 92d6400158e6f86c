package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/dropDatabas3/hostboard/internal/negotiate"
	"github.com/dropDatabas3/hostboard/internal/pager"
)

// Question es una publicación de la comunidad.
type Question struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	AuthorID  string    `json:"authorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchFields expone los campos sobre los que filtra la búsqueda local.
func (q Question) SearchFields() []string {
	return append([]string{q.Title, q.Body}, q.Tags...)
}

// QuestionRepository es lo que un backend debe ofrecer a la comunidad.
type QuestionRepository interface {
	// ListQuestions lee una página con la credencial del tier indicado.
	// Un cursor vacío pide la primera página.
	ListQuestions(ctx context.Context, tier credtier.Tier, cursor string, limit int) (pager.Page[Question], error)

	// SlugExists busca un registro con exactamente ese slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// Execute corre una escritura candidata.
	negotiate.Executor

	Ping(ctx context.Context) error
	Close()
}
