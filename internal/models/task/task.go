package task

import (
	"time"
)

const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 500
)

// Task corresponde a una fila de la tabla tareas.
type Task struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"titulo" db:"titulo"`
	Description *string   `json:"descripcion" db:"descripcion"`
	CreatedAt   time.Time `json:"creado" db:"creado"`
	Done        bool      `json:"hecho" db:"hecho"`
}

func New(title string, description *string) *Task {
	return &Task{
		Title:       title,
		Description: description,
		Done:        false,
	}
}

// Now devuelve la marca de creación tal como la guardan todos los almacenes:
// UTC con precisión de microsegundos.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Clone evita que el almacén en memoria exponga punteros a sus registros.
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	return &c
}
