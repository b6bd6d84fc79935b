package worker

import (
	"context"
	"time"

	"tareas/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const defaultInterval = time.Minute

type StatsSource interface {
	Stats(ctx context.Context) (done, pending int, err error)
}

// StatsWorker publica en Prometheus cuántas tareas hay hechas y pendientes.
type StatsWorker struct {
	source   StatsSource
	interval time.Duration
	tasks    *prometheus.GaugeVec
}

func NewStatsWorker(source StatsSource, reg prometheus.Registerer, interval time.Duration) *StatsWorker {
	if interval <= 0 {
		interval = defaultInterval
	}

	tasks := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tareas_tasks",
			Help: "Tareas almacenadas por estado",
		},
		[]string{"estado"},
	)
	reg.MustRegister(tasks)

	return &StatsWorker{
		source:   source,
		interval: interval,
		tasks:    tasks,
	}
}

// Start hace una pasada inmediata y luego una por intervalo hasta que se cancela ctx.
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Refresh(ctx)

	for {
		select {
		case <-ticker.C:
			w.Refresh(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Recuento de tareas detenido")
			return
		}
	}
}

func (w *StatsWorker) Refresh(ctx context.Context) {
	start := time.Now()

	done, pending, err := w.source.Stats(ctx)
	if err != nil {
		logger.Warn("Worker: Error al contar las tareas", zap.Error(err))
		return
	}

	w.tasks.WithLabelValues("hecha").Set(float64(done))
	w.tasks.WithLabelValues("pendiente").Set(float64(pending))

	logger.Info("Worker: Recuento de tareas actualizado",
		zap.Duration("ms", time.Since(start)),
		zap.Int("hechas", done),
		zap.Int("pendientes", pending),
	)
}
