package worker_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tareas/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockStatsSource struct {
	mock.Mock
}

func (m *MockStatsSource) Stats(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

const gaugeHeader = `
# HELP tareas_tasks Tareas almacenadas por estado
# TYPE tareas_tasks gauge
`

func TestStatsWorker_Refresh(t *testing.T) {
	source := new(MockStatsSource)
	source.On("Stats", mock.Anything).Return(3, 5, nil)

	reg := prometheus.NewRegistry()
	w := worker.NewStatsWorker(source, reg, time.Minute)

	w.Refresh(context.Background())

	expected := gaugeHeader + `tareas_tasks{estado="hecha"} 3
tareas_tasks{estado="pendiente"} 5
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tareas_tasks"))
	source.AssertExpectations(t)
}

func TestStatsWorker_RefreshErrorKeepsPreviousValues(t *testing.T) {
	source := new(MockStatsSource)
	source.On("Stats", mock.Anything).Return(1, 1, nil).Once()
	source.On("Stats", mock.Anything).Return(0, 0, errors.New("db down")).Once()

	reg := prometheus.NewRegistry()
	w := worker.NewStatsWorker(source, reg, time.Minute)

	w.Refresh(context.Background())
	w.Refresh(context.Background())

	expected := gaugeHeader + `tareas_tasks{estado="hecha"} 1
tareas_tasks{estado="pendiente"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tareas_tasks"))
	source.AssertExpectations(t)
}

func TestStatsWorker_StartStopsOnCancel(t *testing.T) {
	source := new(MockStatsSource)
	source.On("Stats", mock.Anything).Return(0, 2, nil)

	w := worker.NewStatsWorker(source, prometheus.NewRegistry(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("el worker no se detuvo")
	}

	// pasada inicial más al menos un tick
	assert.GreaterOrEqual(t, len(source.Calls), 2)
}
