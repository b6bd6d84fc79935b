// Package migrations aplica el esquema de la tabla tareas con golang-migrate.
// Los ficheros SQL van embebidos en el binario, un directorio por dialecto.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"tareas/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// DatabaseURL traduce la URL de la configuración al esquema que espera el driver de migrate.
func DatabaseURL(dialect, dsn string) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", errors.New("url de base de datos vacía")
	}

	switch dialect {
	case DialectPostgres:
		for _, prefix := range []string{"postgres://", "postgresql://"} {
			if strings.HasPrefix(dsn, prefix) {
				return "pgx5://" + strings.TrimPrefix(dsn, prefix), nil
			}
		}
		if strings.HasPrefix(dsn, "pgx5://") {
			return dsn, nil
		}
		return "", fmt.Errorf("url de postgres no soportada: %q", dsn)
	case DialectSQLite:
		return "sqlite3://" + strings.TrimPrefix(dsn, "sqlite3://"), nil
	default:
		return "", fmt.Errorf("dialecto desconocido: %q", dialect)
	}
}

func newMigrate(dialect, dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(files, dialect)
	if err != nil {
		return nil, fmt.Errorf("fuente de migraciones %s: %w", dialect, err)
	}

	dbURL, err := DatabaseURL(dialect, dsn)
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("inicialización de migrate: %w", err)
	}
	return m, nil
}

// Up aplica todas las migraciones pendientes. Sin cambios no es un error.
func Up(dialect, dsn string) error {
	logger.Info("Migrations: Aplicando migraciones", zap.String("dialect", dialect))

	m, err := newMigrate(dialect, dsn)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migrations: Error al aplicar migraciones", err)
		return fmt.Errorf("aplicación de migraciones: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Migrations: Esquema al día",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// Down revierte todas las migraciones.
func Down(dialect, dsn string) error {
	logger.Info("Migrations: Revirtiendo migraciones", zap.String("dialect", dialect))

	m, err := newMigrate(dialect, dsn)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migrations: Error al revertir migraciones", err)
		return fmt.Errorf("reversión de migraciones: %w", err)
	}
	return nil
}

func closeMigrate(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("Migrations: Error al cerrar la fuente", zap.Error(srcErr))
	}
	if dbErr != nil {
		logger.Warn("Migrations: Error al cerrar la base de datos", zap.Error(dbErr))
	}
}
