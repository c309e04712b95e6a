// Package rate implementa los buckets de admisión por operación.
//
// Cada operación nombrada (login, refresh, authentication) tiene su propia
// familia de buckets para que el abuso de una no estrangule a las demás.
// La clave completa lleva un discriminador de caller ("login|1.2.3.4"); la
// configuración se resuelve por el prefijo de operación.
package rate

import (
	"context"
	"strings"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// Claves de operación conocidas.
const (
	KeyLogin          = "login"
	KeyRefresh        = "refresh"
	KeyAuthentication = "authentication"
)

// KeyConfig define el bucket de una operación.
type KeyConfig struct {
	// Limit es la cantidad de hits admitidos por Period.
	Limit int
	// Period es la ventana de reposición.
	Period time.Duration
	// AcquireTimeout es cuánto puede bloquear Acquire esperando un slot
	// antes de rechazar. Cero = rechazo inmediato.
	AcquireTimeout time.Duration
}

// DefaultKeyConfig aplica a claves sin configuración registrada.
var DefaultKeyConfig = KeyConfig{Limit: 60, Period: time.Minute}

// Result contiene el resultado de una consulta de admisión.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
	WindowTTL  time.Duration
}

// Limiter admite o rechaza un hit para la clave dada, bloqueando hasta el
// AcquireTimeout de su operación.
type Limiter interface {
	Acquire(ctx context.Context, key string) (Result, error)
}

// opOf extrae la operación de una clave compuesta "op|discriminador".
func opOf(key string) string {
	if op, _, ok := strings.Cut(key, "|"); ok {
		return op
	}
	return key
}

// =================================================================================
// BUCKET LIMITER (en memoria)
// =================================================================================

type bucketEntry struct {
	lim  *xrate.Limiter
	seen time.Time
}

// BucketLimiter es un token bucket en memoria por clave. Para despliegues
// multi-instancia usar RedisLimiter, que comparte estado.
type BucketLimiter struct {
	cfgs map[string]KeyConfig

	mu      sync.Mutex
	buckets map[string]*bucketEntry

	stop     chan struct{}
	stopOnce sync.Once
}

// NewBucketLimiter crea el limiter con la configuración por operación.
func NewBucketLimiter(cfgs map[string]KeyConfig) *BucketLimiter {
	l := &BucketLimiter{
		cfgs:    cfgs,
		buckets: make(map[string]*bucketEntry),
		stop:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Close detiene la limpieza de buckets inactivos.
func (l *BucketLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *BucketLimiter) configFor(key string) KeyConfig {
	if cfg, ok := l.cfgs[opOf(key)]; ok {
		return cfg
	}
	return DefaultKeyConfig
}

func (l *BucketLimiter) bucketFor(key string, cfg KeyConfig) *xrate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		every := cfg.Period / time.Duration(cfg.Limit)
		b = &bucketEntry{lim: xrate.NewLimiter(xrate.Every(every), cfg.Limit)}
		l.buckets[key] = b
	}
	b.seen = time.Now()
	return b.lim
}

// Acquire reserva un slot del bucket. Si el slot próximo cae dentro del
// AcquireTimeout, espera; si no, rechaza con el RetryAfter estimado.
func (l *BucketLimiter) Acquire(ctx context.Context, key string) (Result, error) {
	cfg := l.configFor(key)
	if cfg.Limit <= 0 {
		return Result{Allowed: false, RetryAfter: cfg.Period}, nil
	}

	lim := l.bucketFor(key, cfg)
	now := time.Now()
	rsv := lim.ReserveN(now, 1)
	if !rsv.OK() {
		return Result{Allowed: false, RetryAfter: cfg.Period}, nil
	}

	delay := rsv.DelayFrom(now)
	if delay == 0 {
		return Result{Allowed: true, Remaining: remaining(lim)}, nil
	}
	if delay > cfg.AcquireTimeout {
		rsv.CancelAt(now)
		return Result{Allowed: false, RetryAfter: delay}, nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		rsv.Cancel()
		return Result{}, ctx.Err()
	case <-timer.C:
		return Result{Allowed: true, Remaining: remaining(lim)}, nil
	}
}

func remaining(lim *xrate.Limiter) int64 {
	n := int64(lim.Tokens())
	if n < 0 {
		return 0
	}
	return n
}

// janitor descarta buckets sin actividad para que las claves por IP no
// crezcan sin cota.
func (l *BucketLimiter) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			l.mu.Lock()
			for k, b := range l.buckets {
				if b.seen.Before(cutoff) {
					delete(l.buckets, k)
				}
			}
			l.mu.Unlock()
		}
	}
}
