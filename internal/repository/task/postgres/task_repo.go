package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tareas/internal/logger"
	"tareas/internal/models/task"
	repo "tareas/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

// PoolOptions ajusta el pool. Los valores a cero dejan los de pgxpool.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, opts PoolOptions) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Error al cargar la configuración", err)
		return nil, fmt.Errorf("carga de configuración: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Error al crear el pool", err)
		return nil, fmt.Errorf("creación del pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Fallo en ping", err)
		return nil, fmt.Errorf("comprobación de conexión ping: %w", err)
	}

	logger.Info("Repository: Conexión a PostgreSQL creada",
		zap.Int32("max_conns", config.MaxConns))
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Cerradas todas las conexiones de PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Fallo en ping", err)
		return fmt.Errorf("comprobación de conexión ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tareas
				(titulo, descripcion, creado, hecho)
				VALUES ($1, $2, $3, $4)
				RETURNING id, creado`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.Title,
		taskToCreate.Description,
		task.Now(),
		taskToCreate.Done,
	).Scan(&taskToCreate.ID, &taskToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: No se pudo insertar la tarea", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("inserción de tarea: %w", err)
	}
	taskToCreate.CreatedAt = taskToCreate.CreatedAt.UTC()

	warnIfSlow(start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	query := `SELECT
				id,
				titulo,
				descripcion,
				creado,
				hecho
				FROM tareas
				WHERE id = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
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

	query := `SELECT
				id,
				titulo,
				descripcion,
				creado,
				hecho
				FROM tareas
				ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
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

// Update no toca creado.
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tareas
			SET titulo = $1,
				descripcion = $2,
				hecho = $3
			WHERE id = $4
			RETURNING creado`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Done,
		taskToUpdate.ID,
	).Scan(&taskToUpdate.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	if err != nil {
		logger.Error("Repository: No se pudo actualizar la tarea", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("actualización de tarea: %w", err)
	}
	taskToUpdate.CreatedAt = taskToUpdate.CreatedAt.UTC()

	warnIfSlow(start)
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tareas WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: No se pudo borrar la tarea", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("borrado de tarea: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.Done); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func warnIfSlow(start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Consulta lenta", zap.Duration("ms", elapsed))
	}
}
