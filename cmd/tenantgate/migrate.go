package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	migrations "github.com/dropDatabas3/tenantgate/migrations/postgres"
)

func newMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate [up|down] [steps]",
		Short: "Aplica migraciones de esquema (requiere storage.driver=postgres)",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			steps := 0
			if len(args) >= 1 && args[0] != "" {
				action = strings.ToLower(args[0])
			}
			if len(args) >= 2 {
				if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
					steps = n
				}
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !strings.EqualFold(cfg.Storage.Driver, "postgres") {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual: %q)", cfg.Storage.Driver)
			}

			// Por defecto corre las migraciones embebidas en el binario;
			// --dir permite apuntar a un directorio del filesystem.
			var fsys fs.FS = migrations.FS
			if dir != "" {
				fsys = os.DirFS(dir)
			}
			return runMigrations(cmd.Context(), cfg.Storage.DSN, fsys, action, steps)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directorio con *_up.sql y *_down.sql (default: embebidas)")
	return cmd
}

func runMigrations(ctx context.Context, dsn string, fsys fs.FS, action string, steps int) error {
	var suffix string
	switch action {
	case "up":
		suffix = "_up.sql"
	case "down":
		suffix = "_down.sql"
	default:
		return fmt.Errorf("acción desconocida %q; use: up | down [steps]", action)
	}

	files, err := listSQL(fsys, suffix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Printf("no hay migraciones *%s, nada que hacer", suffix)
		return nil
	}
	sort.Strings(files)
	if action == "down" {
		// Los down corren de la más nueva a la más vieja; steps recorta
		// a las N más recientes.
		reverseInPlace(files)
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("pgxpool: %w", err)
	}
	defer pool.Close()

	log.Printf("aplicando %d migracion(es) %s...", len(files), action)
	for _, f := range files {
		if err := execSQL(ctx, pool, fsys, f); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
	}
	log.Printf("migraciones %s completadas", action)
	return nil
}

func listSQL(fsys fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func reverseInPlace(ss []string) {
	for i, j := 0, len(ss)-1; i < j; i, j = i+1, j-1 {
		ss[i], ss[j] = ss[j], ss[i]
	}
}

func execSQL(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, name string) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	start := time.Now()
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	log.Printf("OK %s (%s)", name, time.Since(start).Truncate(time.Millisecond))
	return nil
}
