package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tareas/internal/logger"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLimiter comparte la ventana fija entre réplicas con INCR/PTTL/EXPIRE.
// Clave: rl:<segundos de ventana>:<ip>
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// ConnectRedis abre el cliente desde una URL redis:// y comprueba la conexión.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("url de redis: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping a redis: %w", err)
	}

	logger.Info("HTTP: Limitador con Redis conectado", zap.String("addr", opts.Addr))
	return client, nil
}

func (l *RedisLimiter) key(ident string) string {
	return "rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + ident
}

func (l *RedisLimiter) Allow(ctx context.Context, ident string) (Decision, error) {
	key := l.key(ident)

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	if _, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	}); err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", key, err)
	}

	val := incr.Val()
	ttl := pttl.Val()

	// Sin caducidad: primera petición de la ventana o un EXPIRE anterior que falló.
	// Se reintenta en cada petición hasta que la clave tenga TTL.
	if ttl < 0 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = l.window
	}

	remaining := l.limit - int(val)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   val <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
