// Package draft persiste el borrador local del Composer: una entrada por
// usuario y content id, sobrescrita en cada edición y borrada tras un submit exitoso.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/hostboard/internal/cache"
	"github.com/dropDatabas3/hostboard/internal/clock"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
)

// DefaultTTL vida de un borrador sin editar.
const DefaultTTL = 30 * 24 * time.Hour

var (
	// ErrNotFound no hay borrador para ese content id.
	ErrNotFound = errors.New("draft: not found")
	// ErrInvalidID content id vacío o con separadores de key.
	ErrInvalidID = errors.New("draft: invalid content id")
	// ErrNoOwner falta el usuario dueño del borrador.
	ErrNoOwner = errors.New("draft: missing owner")
)

// Draft es el estado persistido de un formulario a medio escribir.
type Draft struct {
	ContentID string            `json:"contentId"`
	Fields    map[string]string `json:"fields"`
	SavedAt   time.Time         `json:"savedAt"`
}

// Store guarda borradores sobre un cache.Client.
type Store struct {
	c     cache.Client
	ttl   time.Duration
	clock clock.Clock
}

// Option configura un Store.
type Option func(*Store)

func WithTTL(ttl time.Duration) Option { return func(s *Store) { s.ttl = ttl } }

func WithClock(c clock.Clock) Option { return func(s *Store) { s.clock = c } }

// NewStore crea un Store.
func NewStore(c cache.Client, opts ...Option) *Store {
	s := &Store{c: c, ttl: DefaultTTL, clock: clock.System}
	for _, o := range opts {
		o(s)
	}
	return s
}

// key aísla los borradores por usuario: draft:<userID>:<contentID>.
func key(userID, contentID string) string { return "draft:" + userID + ":" + contentID }

func validID(id string) bool {
	return id != "" && len(id) <= 128 && !strings.ContainsAny(id, ": \t\n/")
}

func check(userID, contentID string) error {
	if !validID(userID) {
		return ErrNoOwner
	}
	if !validID(contentID) {
		return ErrInvalidID
	}
	return nil
}

// Save sobrescribe el borrador y estampa SavedAt.
func (s *Store) Save(ctx context.Context, userID, contentID string, fields map[string]string) (*Draft, error) {
	if err := check(userID, contentID); err != nil {
		return nil, err
	}
	d := &Draft{ContentID: contentID, Fields: fields, SavedAt: s.clock.Now().UTC()}
	if d.Fields == nil {
		d.Fields = map[string]string{}
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("draft: encode: %w", err)
	}
	if err := s.c.Set(ctx, key(userID, contentID), string(raw), s.ttl); err != nil {
		return nil, fmt.Errorf("draft: save %s: %w", contentID, err)
	}
	return d, nil
}

// Load lee el borrador. Un valor corrupto se descarta y cuenta como ausente.
func (s *Store) Load(ctx context.Context, userID, contentID string) (*Draft, error) {
	if err := check(userID, contentID); err != nil {
		return nil, err
	}
	raw, err := s.c.Get(ctx, key(userID, contentID))
	if cache.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("draft: load %s: %w", contentID, err)
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		logger.From(ctx).Warn("discarding corrupt draft",
			logger.Component("draft"), logger.ContentID(contentID), logger.Err(err))
		_ = s.c.Delete(ctx, key(userID, contentID))
		return nil, ErrNotFound
	}
	return &d, nil
}

// Delete borra el borrador; borrar uno inexistente no es error.
func (s *Store) Delete(ctx context.Context, userID, contentID string) error {
	if err := check(userID, contentID); err != nil {
		return err
	}
	if err := s.c.Delete(ctx, key(userID, contentID)); err != nil {
		return fmt.Errorf("draft: delete %s: %w", contentID, err)
	}
	return nil
}
