package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tareas/internal/logger"
	"tareas/internal/models/task"
	repo "tareas/internal/repository"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

type Storage struct {
	db *sql.DB
}

// New abre el fichero de SQLite. El esquema lo crea migrations.Up antes.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	if dbPath == "" {
		return nil, errors.New("ruta de base de datos vacía")
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creación del directorio: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		logger.Error("Repository: Error al abrir SQLite", err)
		return nil, fmt.Errorf("apertura de sqlite: %w", err)
	}

	// SQLite admite un solo escritor
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("Repository: Fallo en ping", err)
		return nil, fmt.Errorf("comprobación de conexión ping: %w", err)
	}

	logger.Info("Repository: Conexión a SQLite creada", zap.String("path", dbPath))
	return &Storage{db: db}, nil
}

func (s *Storage) Close() {
	if s.db == nil {
		return
	}
	_ = s.db.Close()
	logger.Info("Repository: Conexión a SQLite cerrada")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Fallo en ping", err)
		return fmt.Errorf("comprobación de conexión ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	createdAt := task.Now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tareas (titulo, descripcion, creado, hecho) VALUES (?, ?, ?, ?)`,
		taskToCreate.Title,
		taskToCreate.Description,
		createdAt,
		taskToCreate.Done,
	)
	if err != nil {
		logger.Error("Repository: No se pudo insertar la tarea", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("inserción de tarea: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("id de tarea: %w", err)
	}

	taskToCreate.ID = id
	taskToCreate.CreatedAt = createdAt

	warnIfSlow(start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, titulo, descripcion, creado, hecho FROM tareas WHERE id = ?`, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		logger.Error("Repository: No se pudo obtener la tarea", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("obtención de tarea: %w", err)
	}

	warnIfSlow(start)
	return t, nil
}

func (s *Storage) List(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, titulo, descripcion, creado, hecho FROM tareas ORDER BY id`)
	if err != nil {
		logger.Error("Repository: No se pudieron obtener las tareas", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("obtención de tareas: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("lectura de tarea: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Error iterando filas", err)
		return nil, fmt.Errorf("iteración de filas: %w", err)
	}

	warnIfSlow(start)
	return tasks, nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE tareas SET titulo = ?, descripcion = ?, hecho = ? WHERE id = ?`,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Done,
		taskToUpdate.ID,
	)
	if err != nil {
		logger.Error("Repository: No se pudo actualizar la tarea", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("actualización de tarea: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("filas afectadas: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tareas WHERE id = ?`, id)
	if err != nil {
		logger.Error("Repository: No se pudo borrar la tarea", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("borrado de tarea: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("filas afectadas: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*task.Task, error) {
	t := &task.Task{}
	var description sql.NullString

	if err := row.Scan(&t.ID, &t.Title, &description, &t.CreatedAt, &t.Done); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func warnIfSlow(start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Consulta lenta", zap.Duration("ms", elapsed))
	}
}
