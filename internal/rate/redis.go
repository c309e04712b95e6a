package rate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// RedisLimiter: ventana fija compartida (INCR + EXPIRE). Es el backend para
// despliegues multi-instancia: todas las réplicas descuentan del mismo
// contador.
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	cfgs   map[string]KeyConfig
}

// NewRedisLimiter crea el limiter con la configuración por operación.
func NewRedisLimiter(client *rdb.Client, prefix string, cfgs map[string]KeyConfig) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, cfgs: cfgs}
}

func (l *RedisLimiter) configFor(key string) KeyConfig {
	if cfg, ok := l.cfgs[opOf(key)]; ok {
		return cfg
	}
	return DefaultKeyConfig
}

// Acquire consulta la ventana actual. Si el rechazo expira dentro del
// AcquireTimeout de la operación, espera el resto de la ventana y
// reintenta una única vez.
func (l *RedisLimiter) Acquire(ctx context.Context, key string) (Result, error) {
	cfg := l.configFor(key)
	if cfg.Limit <= 0 {
		return Result{Allowed: false, RetryAfter: cfg.Period}, nil
	}

	res, err := l.hit(ctx, key, cfg)
	if err != nil || res.Allowed {
		return res, err
	}
	if res.RetryAfter <= 0 || res.RetryAfter > cfg.AcquireTimeout {
		return res, nil
	}

	timer := time.NewTimer(res.RetryAfter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-timer.C:
		return l.hit(ctx, key, cfg)
	}
}

// hit incrementa el contador de la ventana vigente.
func (l *RedisLimiter) hit(ctx context.Context, key string, cfg KeyConfig) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(cfg.Period)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	// set expiry on first hit
	if incr.Val() == 1 {
		_ = l.client.Expire(ctx, redisKey, cfg.Period).Err()
		ttl = l.client.TTL(ctx, redisKey)
	}

	hits := incr.Val()
	max := int64(cfg.Limit)
	allowed := hits <= max
	rem := max - hits
	if rem < 0 {
		rem = 0
	}

	res := Result{
		Allowed:   allowed,
		Remaining: rem,
		WindowTTL: ttl.Val(),
	}
	if !allowed {
		// Retry after: resto de la ventana
		res.RetryAfter = ttl.Val()
		if res.RetryAfter < 0 {
			res.RetryAfter = time.Duration(math.Ceil(cfg.Period.Seconds())) * time.Second
		}
	}
	return res, nil
}
