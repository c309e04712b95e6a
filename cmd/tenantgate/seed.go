package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/security/password"
	"github.com/dropDatabas3/tenantgate/internal/store"
	"github.com/dropDatabas3/tenantgate/internal/store/adapters/pg"
)

// newSeedCmd crea datos de desarrollo: un tenant y un usuario admin
// listo para loguearse. Idempotente: lo que ya existe se deja como está.
func newSeedCmd() *cobra.Command {
	var (
		tenantID   int64
		tenantSlug string
		tenantName string
		email      string
		plainPass  string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Crea un tenant y un admin de desarrollo",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := store.Open(ctx, store.Config{
				Driver: cfg.Storage.Driver,
				DSN:    cfg.Storage.DSN,
				Postgres: pg.PoolConfig{
					MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
					MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
					ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
				},
			})
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			defer st.Close()

			return runSeed(ctx, st, seedParams{
				TenantID:   tenantID,
				TenantSlug: strings.ToLower(strings.TrimSpace(tenantSlug)),
				TenantName: strings.TrimSpace(tenantName),
				Email:      strings.TrimSpace(email),
				Password:   plainPass,
			})
		},
	}
	cmd.Flags().Int64Var(&tenantID, "tenant-id", 1, "ID del tenant a crear")
	cmd.Flags().StringVar(&tenantSlug, "tenant-slug", envOr("SEED_TENANT_SLUG", "demo"), "slug del tenant")
	cmd.Flags().StringVar(&tenantName, "tenant-name", envOr("SEED_TENANT_NAME", "Demo Tenant"), "nombre del tenant")
	cmd.Flags().StringVar(&email, "email", envOr("SEED_ADMIN_EMAIL", "admin@demo.com"), "email del admin")
	cmd.Flags().StringVar(&plainPass, "password", envOr("SEED_ADMIN_PASSWORD", "password123"), "password del admin")
	return cmd
}

type seedParams struct {
	TenantID   int64
	TenantSlug string
	TenantName string
	Email      string
	Password   string
}

func runSeed(ctx context.Context, st store.Store, p seedParams) error {
	tenant := &repository.Tenant{
		ID:     p.TenantID,
		Slug:   p.TenantSlug,
		Name:   p.TenantName,
		Active: true,
	}
	switch err := st.Tenants().Create(ctx, tenant); {
	case err == nil:
		log.Printf("tenant creado: id=%d slug=%s", tenant.ID, tenant.Slug)
	case errors.Is(err, repository.ErrConflict):
		log.Printf("tenant id=%d ya existe, se deja como está", p.TenantID)
	default:
		return fmt.Errorf("crear tenant: %w", err)
	}

	phc, err := password.Hash(password.Default, p.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user, err := st.Users().Create(ctx, repository.CreateUserInput{
		TenantID:      p.TenantID,
		Email:         strings.ToLower(p.Email),
		PasswordHash:  phc,
		FirstName:     "Admin",
		Roles:         []string{"ADMIN"},
		Status:        repository.StatusActive,
		EmailVerified: true,
	})
	switch {
	case err == nil:
		log.Printf("admin creado: sub=%s email=%s", user.ID, user.Email)
	case errors.Is(err, repository.ErrConflict):
		// No se pisa el password de un usuario existente.
		log.Printf("admin %s ya existe, password sin cambios", p.Email)
		return nil
	default:
		return fmt.Errorf("crear admin: %w", err)
	}

	fmt.Println()
	fmt.Println("Seed listo")
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Tenant: id=%d slug=%s\n", p.TenantID, p.TenantSlug)
	fmt.Printf("Admin:  %s / %s\n", user.Email, p.Password)
	fmt.Printf("Login:  POST /api/auth/login con header X-Tenant-ID: %d\n", p.TenantID)
	fmt.Println("--------------------------------------------------")
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
