package draft

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/hostboard/internal/cache"
	"github.com/dropDatabas3/hostboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	clk := testutil.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(cache.NewMemory(""), WithClock(clk))

	_, err := s.Load(ctx, "u1", "c1")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Save(ctx, "u1", "c1", map[string]string{"title": "Hot"})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	_, err = s.Save(ctx, "u1", "c1", map[string]string{"title": "Hot tub"})
	require.NoError(t, err)

	d, err := s.Load(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Hot tub", d.Fields["title"])
	assert.Equal(t, clk.Now().UTC(), d.SavedAt)

	require.NoError(t, s.Delete(ctx, "u1", "c1"))
	_, err = s.Load(ctx, "u1", "c1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "u1", "c1"))
}

func TestStore_DraftsAreScopedPerUser(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory("")
	s := NewStore(mem)

	_, err := s.Save(ctx, "alice", "shared-id", map[string]string{"title": "secreto"})
	require.NoError(t, err)

	_, err = s.Load(ctx, "bob", "shared-id")
	assert.ErrorIs(t, err, ErrNotFound)

	// bob no puede pisar ni borrar el de alice
	_, err = s.Save(ctx, "bob", "shared-id", map[string]string{"title": "otro"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "bob", "shared-id"))

	d, err := s.Load(ctx, "alice", "shared-id")
	require.NoError(t, err)
	assert.Equal(t, "secreto", d.Fields["title"])

	ok, _ := mem.Exists(ctx, "draft:alice:shared-id")
	assert.True(t, ok)
}

func TestStore_CorruptValueIsDiscarded(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory("")
	require.NoError(t, mem.Set(ctx, "draft:u1:c2", "{not json", 0))

	s := NewStore(mem)
	_, err := s.Load(ctx, "u1", "c2")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, _ := mem.Exists(ctx, "draft:u1:c2")
	assert.False(t, ok)
}

func TestStore_InvalidID(t *testing.T) {
	s := NewStore(cache.NewMemory(""))
	for _, id := range []string{"", "a:b", "a b", "../x"} {
		_, err := s.Save(context.Background(), "u1", id, nil)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
	for _, owner := range []string{"", "u:1"} {
		_, err := s.Load(context.Background(), owner, "c1")
		assert.ErrorIs(t, err, ErrNoOwner, owner)
	}
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory("")
	s := NewStore(mem, WithTTL(time.Hour))
	_, err := s.Save(ctx, "u1", "c3", nil)
	require.NoError(t, err)
	ttl := mem.TTL(ctx, "draft:u1:c3")
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
}
