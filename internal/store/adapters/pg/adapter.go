// Package pg implementa los repositorios del dominio sobre PostgreSQL
// usando pgxpool. Todas las tablas comparten la base: el aislamiento
// por tenant vive en los predicados tenant_id de cada query.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// PoolConfig ajusta el pool de conexiones.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

// Store es la conexión activa a PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open crea el pool, verifica la conexión y retorna el Store.
func Open(ctx context.Context, dsn string, pc PoolConfig) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if pc.MaxOpenConns > 0 {
		cfg.MaxConns = int32(pc.MaxOpenConns)
	} else {
		cfg.MaxConns = 10
	}
	// pgxpool no distingue open/idle como database/sql; MaxIdleConns se
	// mapea a MinConns para mantener conexiones calientes.
	if pc.MaxIdleConns > 0 {
		cfg.MinConns = int32(pc.MaxIdleConns)
	}
	if pc.ConnMaxLifetime != "" {
		if dur, err := time.ParseDuration(pc.ConnMaxLifetime); err == nil {
			cfg.MaxConnLifetime = dur
			cfg.MaxConnIdleTime = dur
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Users() repository.UserRepository     { return &userRepo{db: s} }
func (s *Store) Tokens() repository.TokenRepository   { return &tokenRepo{db: s} }
func (s *Store) Tenants() repository.TenantRepository { return &tenantRepo{db: s} }

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ─── Transacciones ───

// querier es el subconjunto de pgx que usan los repositorios, cumplido
// tanto por el pool como por una transacción.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// q resuelve el ejecutor para el ctx: la transacción en curso si hay
// una, o el pool.
func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// Atomic corre fn dentro de una transacción. Los repositorios detectan
// la transacción vía el ctx derivado que recibe fn.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		// Ya estamos dentro de una transacción: no anidar.
		return fn(ctx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit tx: %w", err)
	}
	return nil
}

// isUniqueViolation reporta si err es una violación de constraint UNIQUE.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
