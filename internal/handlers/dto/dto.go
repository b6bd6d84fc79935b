package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"tareas/internal/models/task"
)

// isoformat sin zona; los microsegundos sólo cuando no son cero
const (
	creadoLayout       = "2006-01-02T15:04:05"
	creadoLayoutMicros = "2006-01-02T15:04:05.000000"
)

type CreateTaskRequest struct {
	Title       string  `json:"titulo"`
	Description *string `json:"descripcion"`
}

// NullableString distingue un campo ausente de un null explícito.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type UpdateTaskRequest struct {
	Title       *string        `json:"titulo"`
	Description NullableString `json:"descripcion"`
	Done        *bool          `json:"hecho"`
}

// Options traduce sólo los campos presentes en el cuerpo.
func (r UpdateTaskRequest) Options() []task.TaskOption {
	var options []task.TaskOption
	if r.Title != nil {
		options = append(options, task.WithTitle(*r.Title))
	}
	if r.Description.Set {
		options = append(options, task.WithDescription(r.Description.Value))
	}
	if r.Done != nil {
		options = append(options, task.WithDone(*r.Done))
	}
	return options
}

type TaskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"titulo"`
	Description *string `json:"descripcion"`
	CreatedAt   string  `json:"creado"`
	Done        bool    `json:"hecho"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func FormatCreated(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(creadoLayout)
	}
	return t.Format(creadoLayoutMicros)
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   FormatCreated(t.CreatedAt),
		Done:        t.Done,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}
