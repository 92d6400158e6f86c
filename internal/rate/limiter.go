// Package rate limita la creación de contenido por usuario con ventanas fijas.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/hostboard/internal/cache"
	"github.com/dropDatabas3/hostboard/internal/clock"
	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Config límites de una ventana.
type Config struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
	Prefix string        `yaml:"prefix"`
}

func (c Config) normalized() Config {
	if c.Prefix == "" {
		c.Prefix = "rl:"
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	return c
}

func windowKey(prefix, key string, now time.Time, window time.Duration) (string, time.Duration) {
	start := now.Truncate(window)
	k := fmt.Sprintf("%s%s:%d", prefix, strings.ReplaceAll(key, " ", "_"), start.Unix())
	return k, start.Add(window).Sub(now)
}

func result(hits, max int64, left time.Duration) Result {
	res := Result{Allowed: hits <= max, CurrentHits: hits, Remaining: max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = left
	}
	return res
}

// RedisLimiter: fixed window sencillo (INCR + EXPIRE), compartido entre réplicas.
type RedisLimiter struct {
	client *rdb.Client
	cfg    Config
	clock  clock.Clock
}

func NewRedisLimiter(client *rdb.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg.normalized(), clock: clock.System}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey, left := windowKey(l.cfg.Prefix, key, l.clock.Now().UTC(), l.cfg.Window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}
	return result(incr.Val(), int64(l.cfg.Max), left), nil
}

// MemoryLimiter aplica el mismo algoritmo sobre el cache en memoria; cada
// réplica cuenta por separado.
type MemoryLimiter struct {
	mem   *cache.Memory
	cfg   Config
	clock clock.Clock
}

func NewMemoryLimiter(mem *cache.Memory, cfg Config, clk clock.Clock) *MemoryLimiter {
	if clk == nil {
		clk = clock.System
	}
	return &MemoryLimiter{mem: mem, cfg: cfg.normalized(), clock: clk}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	k, left := windowKey(l.cfg.Prefix, key, l.clock.Now().UTC(), l.cfg.Window)
	hits, err := l.mem.Incr(ctx, k, l.cfg.Window)
	if err != nil {
		return Result{}, err
	}
	return result(hits, int64(l.cfg.Max), left), nil
}

// New elige el driver según el cache configurado.
func New(c cache.Client, cfg Config) Limiter {
	switch cc := c.(type) {
	case *cache.Redis:
		return NewRedisLimiter(cc.Raw(), Config{Max: cfg.Max, Window: cfg.Window, Prefix: cc.Key(cfg.normalized().Prefix)})
	case *cache.Memory:
		return NewMemoryLimiter(cc, cfg, nil)
	default:
		return NewMemoryLimiter(cache.NewMemory("rate"), cfg, nil)
	}
}
