package main

import (
	"path/filepath"
	"testing"

	"tareas/internal/config"
	"tareas/internal/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		repoType    string
		expected    string
		expectError bool
	}{
		{repoType: config.RepositorySQLite, expected: migrations.DialectSQLite},
		{repoType: config.RepositoryPostgres, expected: migrations.DialectPostgres},
		{repoType: config.RepositoryInMemory, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.repoType, func(t *testing.T) {
			dialect, err := dialectFor(tt.repoType)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dialect)
		})
	}
}

func TestRun_SQLiteUpAndDown(t *testing.T) {
	cfg := &config.Config{
		Database:   config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "tareas.db")},
		Repository: config.RepositoryConfig{Type: config.RepositorySQLite},
	}

	require.NoError(t, run(cfg, false))
	// sin cambios pendientes no falla
	require.NoError(t, run(cfg, false))
	require.NoError(t, run(cfg, true))
}
