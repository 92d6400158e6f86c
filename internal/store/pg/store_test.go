package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/negotiate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	k := keyset{CreatedAt: time.Date(2026, 2, 3, 4, 5, 6, 789, time.UTC), ID: "b1e4"}
	got, err := decodeCursor(encodeCursor(k))
	require.NoError(t, err)
	assert.Equal(t, k, got)

	for _, bad := range []string{"%%%", "bm9waXBl", "YWJjfA"} {
		_, err := decodeCursor(bad)
		assert.ErrorIs(t, err, repository.ErrInvalidCursor, bad)
	}
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "author_id", columnName("authorId"))
	assert.Equal(t, "body", columnName("body"))
	assert.Equal(t, "tags", columnName("tags"))
}

func TestInsertStatement(t *testing.T) {
	sql, args, err := insertStatement("community_question", map[string]any{
		"title": "Hot tub", "slug": "hot-tub", "body": "How often?", "authorId": "u1",
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `INSERT INTO "community_question" ("author_id", "body", "slug", "title") VALUES ($1, $2, $3, $4)`)
	assert.Equal(t, []any{"u1", "How often?", "hot-tub", "Hot tub"}, args)

	_, _, err = insertStatement("t", map[string]any{`x"; drop`: 1})
	assert.Error(t, err)
	_, _, err = insertStatement("t", nil)
	assert.Error(t, err)
}

func TestExecute_UnknownOperation(t *testing.T) {
	s := &Store{tables: DefaultTables}
	_, err := s.Execute(context.Background(), negotiate.Attempt{
		Candidate: negotiate.Candidate{OperationID: "createThread", PayloadFieldKey: "body"},
	})
	assert.ErrorIs(t, err, repository.ErrUnknownOperation)
}

func TestMigrator_ParsesEmbeddedFiles(t *testing.T) {
	list, err := NewMigrator().ParseMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, 1, list[0].Version)
	assert.Contains(t, list[0].SQL, "community_question")
}

// TestStore_Postgres corre contra una base real si HOSTBOARD_TEST_PG_DSN está definido.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("HOSTBOARD_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("HOSTBOARD_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Config{PrimaryDSN: dsn, Migrate: true})
	require.NoError(t, err)
	defer s.Close()

	slug := "pg-test-" + uuid.NewString()[:8]
	n := negotiate.New(s, []negotiate.Candidate{
		{OperationID: "createQuestion", PayloadFieldKey: "content"},
		{OperationID: "createQuestion", PayloadFieldKey: "body"},
	})
	res, err := n.Negotiate(ctx, func(c negotiate.Candidate) map[string]any {
		return map[string]any{"title": "PG test", "slug": slug, c.PayloadFieldKey: "hello"}
	})
	require.NoError(t, err)
	assert.Equal(t, "body", res.Winner.PayloadFieldKey)
	assert.Equal(t, 1, res.Trail.Failures())

	ok, err := s.SlugExists(ctx, slug)
	require.NoError(t, err)
	assert.True(t, ok)

	page, err := s.ListQuestions(ctx, credtier.Secondary, "", 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}
