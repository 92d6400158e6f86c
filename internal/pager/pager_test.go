package pager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dropDatabas3/hostboard/internal/credtier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%02d", prefix, i)
	}
	return out
}

// fakeBackend sirve páginas por cursor y cuenta las llamadas.
type fakeBackend struct {
	mu     sync.Mutex
	pages  map[string]Page[string]
	errs   map[credtier.Tier]error
	calls  int32
	tiers  []credtier.Tier
	block  chan struct{}
	called chan struct{}
}

func (b *fakeBackend) fetch(ctx context.Context, tier credtier.Tier, cursor string, limit int) (Page[string], error) {
	atomic.AddInt32(&b.calls, 1)
	b.mu.Lock()
	b.tiers = append(b.tiers, tier)
	b.mu.Unlock()
	if b.called != nil {
		b.called <- struct{}{}
	}
	if b.block != nil {
		<-b.block
	}
	if err := b.errs[tier]; err != nil {
		return Page[string]{}, err
	}
	pg, ok := b.pages[cursor]
	if !ok {
		return Page[string]{}, fmt.Errorf("unknown cursor %q", cursor)
	}
	return pg, nil
}

func TestPager_SeededThenExhausted(t *testing.T) {
	b := &fakeBackend{pages: map[string]Page[string]{
		"tok1": {Items: items("p2", 40)},
	}}
	p := New[string](b.fetch)
	require.NoError(t, p.Initialize(Page[string]{Items: items("p1", 40), NextCursor: "tok1"}))
	assert.True(t, p.HasMore())

	require.NoError(t, p.LoadMore(context.Background()))
	st := p.State()
	assert.Len(t, st.Items, 80)
	assert.Equal(t, append(items("p1", 40), items("p2", 40)...), st.Items)
	assert.Empty(t, st.Cursor)
	assert.False(t, st.HasMore)
	assert.False(t, st.Loading)

	require.NoError(t, p.LoadMore(context.Background()))
	assert.EqualValues(t, 1, atomic.LoadInt32(&b.calls), "exhausted pager must not hit the network")
	assert.Len(t, p.State().Items, 80)
	assert.False(t, p.HasMore())
}

func TestPager_ConcatenatesPagesInFetchOrder(t *testing.T) {
	b := &fakeBackend{pages: map[string]Page[string]{
		"a": {Items: []string{"3", "4"}, NextCursor: "b"},
		"b": {Items: []string{"4", "5"}, NextCursor: "c"},
		"c": {Items: []string{"6"}},
	}}
	p := New[string](b.fetch, WithLimit[string](2))
	require.NoError(t, p.Initialize(Page[string]{Items: []string{"1", "2"}, NextCursor: "a"}))

	for p.HasMore() {
		require.NoError(t, p.LoadMore(context.Background()))
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "4", "5", "6"}, p.State().Items,
		"duplicates across pages are kept; dedupe is a caller concern")
}

func TestPager_UninitializedIsNoop(t *testing.T) {
	b := &fakeBackend{}
	p := New[string](b.fetch)
	require.NoError(t, p.LoadMore(context.Background()))
	assert.Zero(t, atomic.LoadInt32(&b.calls))
	assert.Equal(t, State[string]{}, p.State())
}

func TestPager_InitializeOnce(t *testing.T) {
	p := New[string]((&fakeBackend{}).fetch)
	require.NoError(t, p.Initialize(Page[string]{Items: []string{"x"}}))
	assert.ErrorIs(t, p.Initialize(Page[string]{NextCursor: "again"}), ErrAlreadyInitialized)
	assert.False(t, p.HasMore(), "cursor never comes back once terminated")
}

func TestPager_ReentrancyGuard(t *testing.T) {
	b := &fakeBackend{
		pages:  map[string]Page[string]{"tok": {Items: []string{"b"}}},
		block:  make(chan struct{}),
		called: make(chan struct{}, 8),
	}
	p := New[string](b.fetch)
	require.NoError(t, p.Initialize(Page[string]{Items: []string{"a"}, NextCursor: "tok"}))

	errc := make(chan error, 1)
	go func() { errc <- p.LoadMore(context.Background()) }()
	<-b.called
	assert.True(t, p.Loading())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.LoadMore(context.Background()))
		}()
	}
	wg.Wait()

	close(b.block)
	require.NoError(t, <-errc)
	assert.EqualValues(t, 1, atomic.LoadInt32(&b.calls))
	assert.Equal(t, []string{"a", "b"}, p.State().Items)
}

func TestPager_FailureKeepsStateAndStaysUsable(t *testing.T) {
	boom := errors.New("boom")
	b := &fakeBackend{
		pages: map[string]Page[string]{"tok": {Items: []string{"b"}}},
		errs:  map[credtier.Tier]error{credtier.Primary: boom, credtier.Secondary: boom},
	}
	p := New[string](b.fetch)
	require.NoError(t, p.Initialize(Page[string]{Items: []string{"a"}, NextCursor: "tok"}))

	err := p.LoadMore(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, credtier.ErrExhausted)

	st := p.State()
	assert.Equal(t, []string{"a"}, st.Items)
	assert.Equal(t, "tok", st.Cursor)
	assert.False(t, st.Loading)

	b.errs = nil
	require.NoError(t, p.LoadMore(context.Background()))
	assert.Equal(t, []string{"a", "b"}, p.State().Items)
}

func TestPager_FallsBackToSecondaryTier(t *testing.T) {
	b := &fakeBackend{
		pages: map[string]Page[string]{"tok": {Items: []string{"b"}}},
		errs:  map[credtier.Tier]error{credtier.Primary: errors.New("401")},
	}
	p := New[string](b.fetch)
	require.NoError(t, p.Initialize(Page[string]{NextCursor: "tok"}))
	require.NoError(t, p.LoadMore(context.Background()))
	assert.Equal(t, []credtier.Tier{credtier.Primary, credtier.Secondary}, b.tiers)
	assert.Equal(t, []string{"b"}, p.State().Items)
}

func TestPager_CloseDiscardsInFlightResult(t *testing.T) {
	b := &fakeBackend{
		pages:  map[string]Page[string]{"tok": {Items: []string{"late"}, NextCursor: "tok2"}},
		block:  make(chan struct{}),
		called: make(chan struct{}, 1),
	}
	p := New[string](b.fetch)
	require.NoError(t, p.Initialize(Page[string]{Items: []string{"a"}, NextCursor: "tok"}))

	errc := make(chan error, 1)
	go func() { errc <- p.LoadMore(context.Background()) }()
	<-b.called
	p.Close()
	close(b.block)
	require.NoError(t, <-errc)

	st := p.State()
	assert.Equal(t, []string{"a"}, st.Items)
	assert.Equal(t, "tok", st.Cursor)
	assert.False(t, p.HasMore())
}

func TestPager_OnChangeSeesLoadingTransitions(t *testing.T) {
	b := &fakeBackend{pages: map[string]Page[string]{"tok": {Items: []string{"b"}}}}
	var seen []bool
	p := New[string](b.fetch, OnChange[string](func(st State[string]) { seen = append(seen, st.Loading) }))
	require.NoError(t, p.Initialize(Page[string]{NextCursor: "tok"}))
	require.NoError(t, p.LoadMore(context.Background()))
	assert.Equal(t, []bool{false, true, false}, seen)
}

func TestPager_OnAppendOnlyAfterSuccessfulCommit(t *testing.T) {
	b := &fakeBackend{
		pages: map[string]Page[string]{"tok": {Items: []string{"b"}}},
		errs:  map[credtier.Tier]error{credtier.Primary: errors.New("x"), credtier.Secondary: errors.New("y")},
	}
	var appended []Page[string]
	p := New[string](b.fetch, OnAppend[string](func(pg Page[string]) { appended = append(appended, pg) }))
	require.NoError(t, p.Initialize(Page[string]{Items: []string{"a"}, NextCursor: "tok"}))
	assert.Empty(t, appended, "Initialize no es un append")

	require.Error(t, p.LoadMore(context.Background()))
	assert.Empty(t, appended)

	b.errs = nil
	require.NoError(t, p.LoadMore(context.Background()))
	require.Len(t, appended, 1)
	assert.Equal(t, []string{"b"}, appended[0].Items)
}
