package handlers

import (
	"context"

	"tareas/internal/models/task"
)

type Service interface {
	HealthCheck(context.Context) error
	ListTasks(context.Context) ([]*task.Task, error)
	CreateTask(context.Context, string, *string) (*task.Task, error)
	GetTaskByID(context.Context, int64) (*task.Task, error)
	UpdateTask(context.Context, int64, ...task.TaskOption) (*task.Task, error)
	DeleteTask(context.Context, int64) error
}
