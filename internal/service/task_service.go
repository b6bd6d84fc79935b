package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"tareas/internal/logger"
	"tareas/internal/models/task"
	rep "tareas/internal/repository"

	"go.uber.org/zap"
)

// aquí se comprueban las reglas de negocio, los handlers sólo decodifican

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("verificación de salud del servicio: %w", err)
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtención de tareas: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, title string, description *string) (*task.Task, error) {
	newTask := task.New(strings.TrimSpace(title), description)
	if err := validate(newTask); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("creación de tarea: %w", err)
	}

	logger.Info("Service: Tarea creada", zap.Int64("task_id", newTask.ID))
	return newTask, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Tarea no encontrada", zap.Int64("target_id", id))
			return nil, NewNotFound(id, err)
		}
		return nil, fmt.Errorf("obtención de tarea: %w", err)
	}
	return t, nil
}

// UpdateTask aplica sólo las opciones recibidas; el resto de campos conserva su valor.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, options ...task.TaskOption) (*task.Task, error) {
	t, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Apply(options...)
	t.Title = strings.TrimSpace(t.Title)
	if err := validate(t); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, t); err != nil {
		// borrada entre la lectura y la escritura
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(id, err)
		}
		return nil, fmt.Errorf("actualización de tarea: %w", err)
	}

	logger.Info("Service: Tarea actualizada", zap.Int64("task_id", id))
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Tarea no encontrada", zap.Int64("target_id", id))
			return NewNotFound(id, err)
		}
		return fmt.Errorf("borrado de tarea: %w", err)
	}

	logger.Info("Service: Tarea eliminada", zap.Int64("task_id", id))
	return nil
}

// Stats cuenta las tareas hechas y pendientes.
func (s *TaskService) Stats(ctx context.Context) (done, pending int, err error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, t := range tasks {
		if t.Done {
			done++
		} else {
			pending++
		}
	}
	return done, pending, nil
}

func validate(t *task.Task) error {
	if t.Title == "" {
		return NewValidationError("titulo", "es obligatorio")
	}
	if utf8.RuneCountInString(t.Title) > task.MaxTitleLength {
		return NewValidationError("titulo", fmt.Sprintf("máximo %d caracteres", task.MaxTitleLength))
	}
	if t.Description != nil && utf8.RuneCountInString(*t.Description) > task.MaxDescriptionLength {
		return NewValidationError("descripcion", fmt.Sprintf("máximo %d caracteres", task.MaxDescriptionLength))
	}
	return nil
}
