package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/negotiate"
)

var payloadKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// columnName pasa una key de payload (camelCase) a columna (snake_case).
func columnName(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertStatement arma el INSERT para una tabla y un payload. Las columnas van
// ordenadas para que el statement sea estable.
func insertStatement(table string, payload map[string]any) (string, []any, error) {
	if len(payload) == 0 {
		return "", nil, fmt.Errorf("pg: empty payload for %s", table)
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if !payloadKey.MatchString(k) {
			return "", nil, fmt.Errorf("pg: invalid payload key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = pgx.Identifier{columnName(k)}.Sanitize()
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = payload[k]
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING json_build_object('id', id::text, 'slug', slug, 'title', title)",
		pgx.Identifier{table}.Sanitize(), strings.Join(cols, ", "), strings.Join(marks, ", "),
	)
	return sql, args, nil
}

// Execute implementa negotiate.Executor: el operation id elige la tabla y la
// key del contenido es la columna. Una columna inexistente falla el intento.
func (s *Store) Execute(ctx context.Context, a negotiate.Attempt) (json.RawMessage, error) {
	table, ok := s.tables[a.Candidate.OperationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownOperation, a.Candidate.OperationID)
	}
	sql, args, err := insertStatement(table, a.Payload)
	if err != nil {
		return nil, err
	}

	var out []byte
	if err := s.primary.QueryRow(ctx, sql, args...).Scan(&out); err != nil {
		return nil, fmt.Errorf("pg: %s: %w", a.Candidate, err)
	}
	return json.RawMessage(out), nil
}
