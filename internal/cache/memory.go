package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory implementa Client sobre go-cache.
type Memory struct {
	prefix string
	c      *gocache.Cache
}

// NewMemory crea un cliente de cache en memoria. Las entradas vencidas se
// purgan cada minuto.
func NewMemory(prefix string) *Memory {
	return &Memory{prefix: prefix, c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(prefixed(m.prefix, key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(prefixed(m.prefix, key), value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(prefixed(m.prefix, key))
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.c.Get(prefixed(m.prefix, key))
	return ok, nil
}

// Incr incrementa un contador entero creándolo con ttl si no existe.
// Lo usa el rate limiter en memoria.
func (m *Memory) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	k := prefixed(m.prefix, key)
	if err := m.c.Add(k, int64(1), ttl); err == nil {
		return 1, nil
	}
	return m.c.IncrementInt64(k, 1)
}

// TTL retorna el tiempo restante de una key; 0 si no existe o no expira.
func (m *Memory) TTL(_ context.Context, key string) time.Duration {
	_, exp, ok := m.c.GetWithExpiration(prefixed(m.prefix, key))
	if !ok || exp.IsZero() {
		return 0
	}
	return time.Until(exp)
}

func (m *Memory) Len() int                   { return m.c.ItemCount() }
func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { m.c.Flush(); return nil }
