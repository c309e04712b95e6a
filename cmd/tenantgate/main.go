package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tenantgate/internal/config"
)

var (
	flagConfigPath string
	flagEnvFile    string
)

func main() {
	root := &cobra.Command{
		Use:           "tenantgate",
		Short:         "Servicio de autenticación y autorización multi-tenant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "ruta a .env (si existe, se carga)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadConfig carga el .env si existe y resuelve la ruta del YAML:
// flag > $CONFIG_PATH > configs/config.yaml > configs/config.example.yaml.
// Los overrides por variable de entorno los aplica config.Load.
func loadConfig() (*config.Config, error) {
	if flagEnvFile != "" && fileExists(flagEnvFile) {
		if err := godotenv.Load(flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", flagEnvFile)
		}
	}

	path := flagConfigPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if fileExists("configs/config.yaml") {
			path = "configs/config.yaml"
		} else {
			path = "configs/config.example.yaml"
		}
	}
	return config.Load(path)
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
