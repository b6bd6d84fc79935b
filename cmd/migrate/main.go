package main

import (
	"flag"
	"fmt"
	"os"

	"tareas/internal/config"
	"tareas/internal/logger"
	"tareas/internal/migrations"
)

func main() {
	configPath := flag.String("config", "config.yml", "ruta del fichero de configuración")
	down := flag.Bool("down", false, "revierte las migraciones en lugar de aplicarlas")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuración: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *down); err != nil {
		logger.Error("Migrate: Error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, down bool) error {
	dialect, err := dialectFor(cfg.Repository.Type)
	if err != nil {
		return err
	}
	if down {
		return migrations.Down(dialect, cfg.Database.URL)
	}
	return migrations.Up(dialect, cfg.Database.URL)
}

func dialectFor(repoType string) (string, error) {
	switch repoType {
	case config.RepositorySQLite:
		return migrations.DialectSQLite, nil
	case config.RepositoryPostgres:
		return migrations.DialectPostgres, nil
	default:
		return "", fmt.Errorf("el repositorio %q no usa migraciones", repoType)
	}
}
