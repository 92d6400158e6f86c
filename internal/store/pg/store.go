// Package pg implementa el backend de la comunidad sobre PostgreSQL.
//
// Tiers:
//   - Primary: pool de la réplica de lectura
//   - Secondary: pool del primario
//
// El lag de la réplica aparece como una página vacía y se vuelve a probar
// contra el primario.
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
	"github.com/dropDatabas3/hostboard/internal/pager"
)

// Config del backend.
type Config struct {
	PrimaryDSN string `yaml:"primary_dsn"`
	ReplicaDSN string `yaml:"replica_dsn"`
	MaxConns   int    `yaml:"max_conns"`
	// Tables mapea operation id → tabla para las escrituras negociadas.
	Tables  map[string]string `yaml:"tables"`
	Migrate bool              `yaml:"migrate"`
}

// DefaultTables asocia los candidatos de escritura conocidos a la tabla de preguntas.
var DefaultTables = map[string]string{
	"createQuestion":          "community_question",
	"createCommunityQuestion": "community_question",
	"createPost":              "community_question",
}

// Store es el QuestionRepository sobre pgx.
type Store struct {
	primary *pgxpool.Pool
	replica *pgxpool.Pool
	tables  map[string]string
}

var _ repository.QuestionRepository = (*Store)(nil)

func connect(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return pool, nil
}

// Open conecta ambos pools. Sin ReplicaDSN los dos tiers usan el primario.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	primary, err := connect(ctx, cfg.PrimaryDSN, cfg.MaxConns)
	if err != nil {
		return nil, err
	}
	s := &Store{primary: primary, replica: primary, tables: cfg.Tables}
	if len(s.tables) == 0 {
		s.tables = DefaultTables
	}

	if cfg.ReplicaDSN != "" && cfg.ReplicaDSN != cfg.PrimaryDSN {
		replica, err := connect(ctx, cfg.ReplicaDSN, cfg.MaxConns)
		if err != nil {
			primary.Close()
			return nil, err
		}
		s.replica = replica
	}

	if cfg.Migrate {
		res, err := NewMigrator().Run(ctx, primary)
		if err != nil {
			s.Close()
			return nil, err
		}
		logger.From(ctx).Info("postgres migrations applied",
			logger.Component("store.pg"), logger.Count(len(res.Applied)))
	}
	return s, nil
}

func (s *Store) pool(tier credtier.Tier) *pgxpool.Pool {
	if tier == credtier.Primary {
		return s.replica
	}
	return s.primary
}

const listQuestions = `
	SELECT id::text, slug, title, body, tags, author_id, created_at
	FROM community_question
	WHERE ($1::timestamptz IS NULL OR (created_at, id) < ($1, $2::uuid))
	ORDER BY created_at DESC, id DESC
	LIMIT $3
`

// ListQuestions pagina por keyset (created_at, id) descendente.
func (s *Store) ListQuestions(ctx context.Context, tier credtier.Tier, cursor string, limit int) (pager.Page[repository.Question], error) {
	var page pager.Page[repository.Question]
	if limit <= 0 {
		limit = pager.DefaultLimit
	}

	var after *keyset
	if cursor != "" {
		k, err := decodeCursor(cursor)
		if err != nil {
			return page, err
		}
		after = &k
	}

	args := []any{nil, nil, limit + 1}
	if after != nil {
		args[0], args[1] = after.CreatedAt, after.ID
	}

	rows, err := s.pool(tier).Query(ctx, listQuestions, args...)
	if err != nil {
		return page, fmt.Errorf("pg: list questions: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.Question, error) {
		var q repository.Question
		err := row.Scan(&q.ID, &q.Slug, &q.Title, &q.Body, &q.Tags, &q.AuthorID, &q.CreatedAt)
		return q, err
	})
	if err != nil {
		return page, fmt.Errorf("pg: scan questions: %w", err)
	}

	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		page.NextCursor = encodeCursor(keyset{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	page.Items = items
	return page, nil
}

// SlugExists consulta el primario; la réplica podría no ver un alta reciente.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.primary.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM community_question WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pg: slug exists: %w", err)
	}
	return exists, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.primary.Ping(ctx); err != nil {
		return err
	}
	return s.replica.Ping(ctx)
}

func (s *Store) Close() {
	if s.replica != s.primary {
		s.replica.Close()
	}
	s.primary.Close()
}
