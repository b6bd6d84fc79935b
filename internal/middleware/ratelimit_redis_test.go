package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tareas/internal/middleware"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("se omiten las pruebas de integración en modo short")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("no se pudo arrancar Redis: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := middleware.ConnectRedis(ctx, url)
	require.NoError(t, err)
	return client
}

func TestRedisLimiter(t *testing.T) {
	client := startRedis(t)

	limiter := middleware.NewRedisLimiter(client, 2, 2*time.Second)
	t.Cleanup(func() { _ = limiter.Close() })

	h := middleware.RateLimit(limiter, nil)(http.HandlerFunc(okHandler))
	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/tareas", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.1.1.1"))
	assert.Equal(t, http.StatusOK, send("10.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.1.1.1"))
	assert.Equal(t, http.StatusOK, send("10.1.1.2"))

	// la clave expira con la ventana
	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, http.StatusOK, send("10.1.1.1"))
}

func TestRedisLimiter_RestoresMissingTTL(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)

	limiter := middleware.NewRedisLimiter(client, 2, 10*time.Second)
	t.Cleanup(func() { _ = limiter.Close() })

	// contador ya por encima del límite y sin caducidad
	key := "rl:10:10.2.2.2"
	require.NoError(t, client.Set(ctx, key, 5, 0).Err())
	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	require.Equal(t, time.Duration(-1), ttl)

	d, err := limiter.Allow(ctx, "10.2.2.2")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	ttl, err = client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 10*time.Second)
}

func TestConnectRedis_InvalidURL(t *testing.T) {
	_, err := middleware.ConnectRedis(context.Background(), "no-es-redis")
	assert.Error(t, err)
}
