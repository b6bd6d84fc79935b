package service

import (
	"context"

	"tareas/internal/models/task"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	GetByID(context.Context, int64) (*task.Task, error)
	List(context.Context) ([]*task.Task, error)
	Update(context.Context, *task.Task) error
	Delete(context.Context, int64) error
}
