package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tareas/internal/logger"

	"go.uber.org/zap"
)

// Decision es el resultado de contar una petición dentro de la ventana.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type clientInfo struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter cuenta por ventana fija en el propio proceso.
type MemoryLimiter struct {
	limit     int
	window    time.Duration
	mtx       sync.Mutex
	clients   map[string]*clientInfo
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientInfo),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	l.sweep(now)

	info, exists := l.clients[key]
	if !exists || now.After(info.resetAt) {
		info = &clientInfo{count: 0, resetAt: now.Add(l.window)}
		l.clients[key] = info
	}

	if info.count >= l.limit {
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, ResetAt: info.resetAt}, nil
	}

	info.count++
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - info.count,
		ResetAt:   info.resetAt,
	}, nil
}

// sweep borra ventanas caducadas una vez por ventana.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, info := range l.clients {
		if now.After(info.resetAt) {
			delete(l.clients, key)
		}
	}
	l.nextSweep = now.Add(l.window)
}

// RateLimit limita por IP de cliente. Si el limitador falla se deja pasar la petición.
func RateLimit(limiter Limiter, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			decision, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn("HTTP: Error del limitador, se permite la petición",
					zap.Error(err),
					zap.String("client_ip", ip))
				w.Header().Set("X-RateLimit-Error", "limiter-error")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				metrics.rateLimited()

				retryAfter := int(time.Until(decision.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}

				logger.Warn("HTTP: Límite de peticiones superado",
					zap.String("client_ip", ip),
					zap.String("request_id", GetRequestID(r.Context())))

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Demasiadas peticiones. Inténtalo más tarde.",
					"retry_after": retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
