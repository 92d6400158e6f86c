// Package dto define los cuerpos de request/response de la API.
package dto

import (
	"time"

	"github.com/dropDatabas3/hostboard/internal/domain/repository"
)

// QuestionPage GET /v1/community/questions
type QuestionPage struct {
	Items      []repository.Question `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
	HasMore    bool                  `json:"hasMore"`
}

// CreateQuestionRequest POST /v1/community/questions
type CreateQuestionRequest struct {
	ContentID string   `json:"contentId,omitempty"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags,omitempty"`
	// ReturnTo es la ruta a la que volver tras iniciar sesión.
	ReturnTo string `json:"returnTo,omitempty"`
}

// CreatedQuestion respuesta 201.
type CreatedQuestion struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	SlugMode  string `json:"slugMode"`
	Operation string `json:"operation"`
	Attempts  int    `json:"attempts"`
}

// SlugPreview GET /v1/slugs/preview
type SlugPreview struct {
	Base     string `json:"base"`
	Resolved string `json:"resolved"`
	Mode     string `json:"mode"`
}

// DraftRequest PUT /v1/drafts/{contentID}
type DraftRequest struct {
	Fields map[string]string `json:"fields"`
}

// DraftResponse GET/PUT /v1/drafts/{contentID}
type DraftResponse struct {
	ContentID string            `json:"contentId"`
	Fields    map[string]string `json:"fields"`
	SavedAt   time.Time         `json:"savedAt"`
}
