package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"tareas/internal/handlers/dto"
	"tareas/internal/logger"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

var pages = template.Must(template.New("").ParseFS(templateFiles, "templates/*.html"))

type indexData struct {
	Tasks   []dto.TaskResponse
	Pending int
	Done    int
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (s *TaskHandler) IndexPage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tasks, err := s.TaskService.ListTasks(r.Context())
	if err != nil {
		logger.Error("HTTP: Error en Service", err, zap.String("operation", "index_page"))
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	data := indexData{Tasks: dto.FromTaskList(tasks)}
	for _, t := range tasks {
		if t.Done {
			data.Done++
		} else {
			data.Pending++
		}
	}

	renderPage(w, "index.html", data)

	logger.Info("HTTP_OUT: Página principal",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
}

func (s *TaskHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	renderPage(w, "crear_tarea.html", nil)
}

// renderPage ejecuta en un buffer para no enviar media página si falla la plantilla.
func renderPage(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("HTTP: Error al renderizar la plantilla", err, zap.String("template", name))
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
