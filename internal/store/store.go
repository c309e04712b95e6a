// Package store abre el backend de persistencia y expone los
// repositorios del dominio detrás de una interfaz única.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/store/adapters/memory"
	"github.com/dropDatabas3/tenantgate/internal/store/adapters/pg"
)

// Store agrupa los repositorios sobre un mismo backend.
type Store interface {
	Users() repository.UserRepository
	Tokens() repository.TokenRepository
	Tenants() repository.TenantRepository

	// Atomic ejecuta fn dentro de una transacción del backend. Las
	// operaciones de repositorio hechas con el ctx que recibe fn
	// participan de la misma transacción; si fn retorna error se hace
	// rollback completo.
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Config describe el backend a abrir.
type Config struct {
	Driver   string
	DSN      string
	Postgres pg.PoolConfig
}

// Open abre el backend indicado por cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "pg", "postgresql":
		return pg.Open(ctx, cfg.DSN, cfg.Postgres)
	case "memory", "mem":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}
