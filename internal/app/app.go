package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tareas/internal/config"
	"tareas/internal/handlers"
	"tareas/internal/logger"
	"tareas/internal/middleware"
	"tareas/internal/migrations"
	"tareas/internal/repository/task/inmemory"
	"tareas/internal/repository/task/postgres"
	"tareas/internal/repository/task/sqlite"
	"tareas/internal/service"
	"tareas/internal/worker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const rateLimitWindow = time.Minute

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	registry   *prometheus.Registry
	repository service.TaskRepository
	service    *service.TaskService
	limiter    middleware.Limiter
	worker     *worker.StatsWorker
	shutdowns  []func() // se ejecutan en orden inverso
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		registry:  prometheus.NewRegistry(),
		shutdowns: make([]func(), 0),
	}
}

// Init construye las dependencias: logger, migraciones, almacén, servicio, router y worker.
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("inicialización del logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Cerrando el logger...")
		logger.Sync()
	})

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := a.initRepository(ctx); err != nil {
		return err
	}

	a.service = service.NewTaskService(a.repository)
	a.initLimiter(ctx)
	a.initRouter()

	a.worker = worker.NewStatsWorker(a.service, a.registry, a.config.Worker.StatsInterval)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "tareas"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("App: Inicializada",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	dbURL := a.config.Database.URL

	switch a.config.Repository.Type {
	case config.RepositorySQLite:
		if err := migrations.Up(migrations.DialectSQLite, dbURL); err != nil {
			return fmt.Errorf("migraciones sqlite: %w", err)
		}
		storage, err := sqlite.New(ctx, dbURL)
		if err != nil {
			return fmt.Errorf("repositorio sqlite: %w", err)
		}
		a.repository = storage
		a.shutdowns = append(a.shutdowns, storage.Close)

	case config.RepositoryPostgres:
		if err := migrations.Up(migrations.DialectPostgres, dbURL); err != nil {
			return fmt.Errorf("migraciones postgres: %w", err)
		}
		storage, err := postgres.New(ctx, dbURL, postgres.PoolOptions{
			MaxConns:        int32(a.config.Database.MaxConnections),
			MinConns:        int32(a.config.Database.MinConnections),
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("repositorio postgres: %w", err)
		}
		a.repository = storage
		a.shutdowns = append(a.shutdowns, storage.Close)

	case config.RepositoryInMemory:
		a.repository = inmemory.NewTaskStorage()

	default:
		return fmt.Errorf("tipo de repositorio desconocido: %q", a.config.Repository.Type)
	}
	return nil
}

// initLimiter usa Redis si está configurado y responde; si no, el limitador en memoria.
func (a *App) initLimiter(ctx context.Context) {
	rpm := a.config.RateLimit.RequestsPerMinute
	if rpm <= 0 {
		logger.Info("App: Limitador de peticiones desactivado")
		return
	}

	if url := a.config.RateLimit.RedisURL; url != "" {
		client, err := middleware.ConnectRedis(ctx, url)
		if err == nil {
			redisLimiter := middleware.NewRedisLimiter(client, rpm, rateLimitWindow)
			a.limiter = redisLimiter
			a.shutdowns = append(a.shutdowns, func() {
				_ = redisLimiter.Close()
			})
			return
		}
		logger.Warn("App: Redis no disponible, se usa el limitador en memoria", zap.Error(err))
	}

	a.limiter = middleware.NewMemoryLimiter(rpm, rateLimitWindow)
}

func (a *App) initRouter() {
	metrics := middleware.NewMetrics(a.registry)
	taskHandler := handlers.NewTaskHandler(a.service)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIdHeader},
		ExposedHeaders: []string{middleware.RequestIdHeader, "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))

	r.Group(func(r chi.Router) {
		if a.limiter != nil {
			r.Use(middleware.RateLimit(a.limiter, metrics))
		}
		if timeout := a.config.Server.RequestTimeout; timeout > 0 {
			r.Use(chimw.Timeout(timeout))
		}
		taskHandler.Register(r)
	})

	a.router = r
}

// Handler expone el router ya montado.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run sirve HTTP y el worker hasta que ctx se cancela o el servidor falla.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Servidor escuchando", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("servidor http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: Apagando el servidor...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("apagado del servidor: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Close()
	return err
}

// Close libera los recursos en orden inverso al de creación.
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
