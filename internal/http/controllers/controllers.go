// Package controllers agrupa los controllers HTTP del servicio.
package controllers

import (
	"github.com/dropDatabas3/hostboard/internal/http/controllers/community"
	"github.com/dropDatabas3/hostboard/internal/http/controllers/drafts"
	"github.com/dropDatabas3/hostboard/internal/http/controllers/health"
)

// Controllers es el agregador que recibe el router.
type Controllers struct {
	Health    *health.HealthController
	Questions *community.QuestionsController
	Drafts    *drafts.DraftsController
}
