package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tareas/internal/app"
	"tareas/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(repoType, dbURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Database:   config.DatabaseConfig{URL: dbURL},
		Repository: config.RepositoryConfig{Type: repoType},
		RateLimit:  config.RateLimitConfig{RequestsPerMinute: 1000},
		CORS:       config.CORSConfig{AllowedOrigins: []string{"*"}},
		Worker:     config.WorkerConfig{StatsInterval: time.Minute},
	}
}

func newApp(t *testing.T, cfg *config.Config) *app.App {
	t.Helper()
	a := app.New(cfg)
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(a.Close)
	return a
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApp_SQLiteEndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tareas.db")
	h := newApp(t, testConfig(config.RepositorySQLite, dbPath)).Handler()

	w := serve(h, http.MethodPost, "/api/tareas", `{"titulo": "Buy milk"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))

	var created map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, float64(1), created["id"])
	assert.Nil(t, created["descripcion"])

	w = serve(h, http.MethodPut, "/api/tareas/1", `{"hecho": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hecho":true`)

	w = serve(h, http.MethodDelete, "/api/tareas/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Tarea eliminada"}`, w.Body.String())

	w = serve(h, http.MethodDelete, "/api/tareas/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApp_InMemoryRoutes(t *testing.T) {
	h := newApp(t, testConfig(config.RepositoryInMemory, "")).Handler()

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "index page", method: http.MethodGet, path: "/", expectedStatus: http.StatusOK},
		{name: "create page", method: http.MethodGet, path: "/crear_tarea", expectedStatus: http.StatusOK},
		{name: "list", method: http.MethodGet, path: "/api/tareas", expectedStatus: http.StatusOK},
		{name: "health", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{name: "non numeric id", method: http.MethodGet, path: "/api/tareas/uno", expectedStatus: http.StatusNotFound},
		{name: "unknown path", method: http.MethodGet, path: "/nada", expectedStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPatch, path: "/api/tareas/1", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, tt.method, tt.path, "")
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestApp_MetricsEndpoint(t *testing.T) {
	a := newApp(t, testConfig(config.RepositoryInMemory, ""))
	h := a.Handler()

	serve(h, http.MethodGet, "/api/tareas", "")

	w := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tareas_http_requests_total")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a := app.New(testConfig(config.RepositoryInMemory, ""))
	require.NoError(t, a.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run no terminó tras cancelar el contexto")
	}
}

func TestApp_InitUnknownRepository(t *testing.T) {
	a := app.New(testConfig("mongo", ""))
	err := a.Init(context.Background())
	assert.Error(t, err)
	a.Close()
}
