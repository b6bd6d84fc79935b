package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"tareas/internal/handlers/dto"
	"tareas/internal/logger"
	"tareas/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const serviceName = "tareas"

const msgTaskDeleted = "Tarea eliminada"

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

// Register monta la API y las páginas. {id} sólo acepta dígitos,
// cualquier otra cosa cae en el 404 del router.
func (s *TaskHandler) Register(r chi.Router) {
	r.Get("/", s.IndexPage)
	r.Get("/crear_tarea", s.CreatePage)
	r.Handle("/static/*", staticHandler())

	r.Get("/health", s.HealthCheck)

	r.Route("/api/tareas", func(r chi.Router) {
		r.Get("/", s.ListTasks)
		r.Post("/", s.PostTask)
		r.Get("/{id:[0-9]+}", s.GetTaskByID)
		r.Put("/{id:[0-9]+}", s.UpdateTaskByID)
		r.Delete("/{id:[0-9]+}", s.DeleteTaskByID)
	})
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	status, code := "healthy", http.StatusOK
	database := "ok"
	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Health check fallido", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
		database = "error"
	}

	responseWithJSON(w, code,
		toPayload("status", status),
		toPayload("service", serviceName),
		toPayload("checks", map[string]string{"database": database}),
	)
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tasks, err := s.TaskService.ListTasks(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Tareas obtenidas",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !s.requireJSON(w, r) {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeBody(w, r, &request) {
		return
	}

	task, err := s.TaskService.CreateTask(r.Context(), request.Title, request.Description)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Tarea creada",
		zap.Int64("task_id", task.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(task))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	task, err := s.TaskService.GetTaskByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Tarea obtenida",
		zap.Int64("task_id", task.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(task))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if !s.requireJSON(w, r) {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeBody(w, r, &request) {
		return
	}

	task, err := s.TaskService.UpdateTask(r.Context(), id, request.Options()...)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Tarea actualizada",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(task))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Tarea eliminada",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithMessage(w, http.StatusOK, msgTaskDeleted)
}

// pathID responde 404 si el id no cabe en int64: esa tarea no puede existir.
func (s *TaskHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: Id fuera de rango",
			zap.String("id", chi.URLParam(r, "id")),
			zap.String("client_ip", r.RemoteAddr))

		handleBusinessError(w, service.NewBusinessError(service.CodeNotFound, service.MsgTaskNotFound))
		return 0, false
	}
	return id, true
}

func (s *TaskHandler) requireJSON(w http.ResponseWriter, r *http.Request) bool {
	if checkContentType(r, "application/json") {
		return true
	}

	logger.Warn("HTTP: Tipo de contenido no válido",
		zap.String("expected", "application/json"),
		zap.String("received", r.Header.Get("Content-Type")),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusUnsupportedMediaType, codeUnsupportedMedia,
		"Content-Type debe ser application/json")
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)

	var raw json.RawMessage
	err := dec.Decode(&raw)
	if err == nil && bytes.Equal(raw, []byte("null")) {
		err = errors.New("cuerpo null")
	}
	// un único valor JSON por cuerpo
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.New("datos sobrantes tras el JSON")
		}
	}
	if err == nil {
		err = json.Unmarshal(raw, dst)
	}
	if err != nil {
		logger.Warn("HTTP: Error al leer el JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		handleBusinessError(w, service.NewValidationError("body", "JSON no válido"))
		return false
	}
	return true
}
