package slug

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dropDatabas3/hostboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const title = "How do you handle steep driveways for guests?"
const base = "how-do-you-handle-steep-driveways-for-guests"

type setLookup struct {
	taken map[string]bool
	err   error
	calls []string
}

func (l *setLookup) SlugExists(_ context.Context, s string) (bool, error) {
	l.calls = append(l.calls, s)
	if l.err != nil {
		return false, l.err
	}
	return l.taken[s], nil
}

func TestResolve_NoMatchKeepsBase(t *testing.T) {
	r := NewResolver(&setLookup{})
	c, err := r.Resolve(context.Background(), title)
	require.NoError(t, err)
	assert.Equal(t, Claim{Base: base, Resolved: base, Mode: ModeUnique}, c)
}

func TestResolve_CollisionIsDeterministic(t *testing.T) {
	l := &setLookup{taken: map[string]bool{base: true}}
	r := NewResolver(l)
	c1, err := r.Resolve(context.Background(), title)
	require.NoError(t, err)
	c2, err := r.Resolve(context.Background(), title)
	require.NoError(t, err)

	assert.Equal(t, base+"-2", c1.Resolved)
	assert.Equal(t, c1, c2)
	assert.Equal(t, ModeSuffixed, c1.Mode)
}

func TestResolve_ProbesSuccessiveSuffixes(t *testing.T) {
	l := &setLookup{taken: map[string]bool{base: true, base + "-2": true, base + "-3": true}}
	c, err := NewResolver(l).Resolve(context.Background(), title)
	require.NoError(t, err)
	assert.Equal(t, base+"-4", c.Resolved)
	assert.Equal(t, []string{base, base + "-2", base + "-3", base + "-4"}, l.calls)
}

func TestResolve_AllSuffixesTakenFallsBackToTime(t *testing.T) {
	l := &setLookup{taken: map[string]bool{base: true, base + "-2": true}}
	clk := testutil.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	c, err := NewResolver(l, WithMaxProbes(1), WithClock(clk)).Resolve(context.Background(), title)
	require.NoError(t, err)
	assert.Equal(t, ModeTimestamped, c.Mode)
	assert.True(t, strings.HasPrefix(c.Resolved, base+"-"))
}

func TestResolve_LookupUnavailable(t *testing.T) {
	clk := testutil.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	r := NewResolver(nil, WithClock(clk))

	c1, err := r.Resolve(context.Background(), title)
	require.NoError(t, err)
	c2, err := r.Resolve(context.Background(), title)
	require.NoError(t, err)

	assert.Equal(t, ModeTimestamped, c1.Mode)
	assert.NotEqual(t, base, c1.Resolved)
	assert.True(t, strings.HasPrefix(c1.Resolved, base+"-"))
	assert.NotEqual(t, c1.Resolved, c2.Resolved, "suffix is strictly increasing even within the same millisecond")

	s1 := strings.TrimPrefix(c1.Resolved, base+"-")
	s2 := strings.TrimPrefix(c2.Resolved, base+"-")
	assert.Less(t, s1, s2)
}

func TestResolve_LookupErrorDowngrades(t *testing.T) {
	l := &setLookup{err: errors.New("graph: 503")}
	c, err := NewResolver(l).Resolve(context.Background(), title)
	require.NoError(t, err)
	assert.Equal(t, ModeTimestamped, c.Mode)
	assert.Equal(t, base, c.Base)
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := LookupFunc(func(ctx context.Context, _ string) (bool, error) {
		cancel()
		return false, ctx.Err()
	})
	_, err := NewResolver(l).Resolve(ctx, title)
	assert.ErrorIs(t, err, context.Canceled)
}
