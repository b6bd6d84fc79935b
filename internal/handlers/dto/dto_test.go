package dto_test

import (
	"encoding/json"
	"testing"
	"time"

	"tareas/internal/handlers/dto"
	"tareas/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCreated(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		expected string
	}{
		{
			name:     "whole seconds",
			in:       time.Date(2024, 3, 5, 9, 7, 1, 0, time.UTC),
			expected: "2024-03-05T09:07:01",
		},
		{
			name:     "microseconds",
			in:       time.Date(2024, 3, 5, 9, 7, 1, 123456000, time.UTC),
			expected: "2024-03-05T09:07:01.123456",
		},
		{
			name:     "leading zero microseconds",
			in:       time.Date(2024, 3, 5, 9, 7, 1, 1000, time.UTC),
			expected: "2024-03-05T09:07:01.000001",
		},
		{
			name:     "sub-microsecond ignored",
			in:       time.Date(2024, 3, 5, 9, 7, 1, 999, time.UTC),
			expected: "2024-03-05T09:07:01",
		},
		{
			name:     "converted to utc",
			in:       time.Date(2024, 3, 5, 11, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
			expected: "2024-03-05T09:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dto.FormatCreated(tt.in))
		})
	}
}

func TestUpdateTaskRequest_Options(t *testing.T) {
	base := func() *task.Task {
		d := "original"
		return &task.Task{ID: 1, Title: "Título", Description: &d}
	}

	tests := []struct {
		name  string
		body  string
		check func(*testing.T, *task.Task)
		count int
	}{
		{
			name:  "empty body keeps everything",
			body:  `{}`,
			count: 0,
			check: func(t *testing.T, got *task.Task) {
				assert.Equal(t, "Título", got.Title)
				assert.Equal(t, "original", *got.Description)
			},
		},
		{
			name:  "explicit null clears description",
			body:  `{"descripcion": null}`,
			count: 1,
			check: func(t *testing.T, got *task.Task) {
				assert.Nil(t, got.Description)
			},
		},
		{
			name:  "null titulo is ignored",
			body:  `{"titulo": null, "hecho": true}`,
			count: 1,
			check: func(t *testing.T, got *task.Task) {
				assert.Equal(t, "Título", got.Title)
				assert.True(t, got.Done)
			},
		},
		{
			name:  "all fields",
			body:  `{"titulo": "Nuevo", "descripcion": "otra", "hecho": false}`,
			count: 3,
			check: func(t *testing.T, got *task.Task) {
				assert.Equal(t, "Nuevo", got.Title)
				assert.Equal(t, "otra", *got.Description)
				assert.False(t, got.Done)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req dto.UpdateTaskRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			options := req.Options()
			assert.Len(t, options, tt.count)

			got := base()
			got.Apply(options...)
			tt.check(t, got)
		})
	}
}

func TestUpdateTaskRequest_InvalidDescription(t *testing.T) {
	var req dto.UpdateTaskRequest
	err := json.Unmarshal([]byte(`{"descripcion": 5}`), &req)
	assert.Error(t, err)
}

func TestFromTask(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	resp := dto.FromTask(&task.Task{ID: 4, Title: "Leer", CreatedAt: created, Done: true})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":4,"titulo":"Leer","descripcion":null,"creado":"2024-01-02T03:04:05","hecho":true}`,
		string(raw))

	list := dto.FromTaskList([]*task.Task{})
	raw, err = json.Marshal(list)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
