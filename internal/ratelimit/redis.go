package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// allowScript атомарно удаляет устаревшие попытки, проверяет лимит и
// регистрирует новую попытку. Возвращает 1, если попытка принята.
//
// KEYS[1] ключ окна; ARGV: граница окна, время попытки (мкс), лимит, TTL (мс), ID попытки.
var allowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// RedisWindow реализует скользящее окно в отсортированном множестве Redis.
// Оценка элемента равна времени попытки в микросекундах.
type RedisWindow struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisWindow создаёт окно поверх клиента Redis.
func NewRedisWindow(client redis.Scripter, limit int, window time.Duration) *RedisWindow {
	return &RedisWindow{
		client: client,
		limit:  limit,
		window: window,
		prefix: "familyvault:login:",
		now:    time.Now,
	}
}

// WithClock подменяет источник времени, используется в тестах.
func (w *RedisWindow) WithClock(now func() time.Time) *RedisWindow {
	w.now = now
	return w
}

// Allow удаляет устаревшие попытки, проверяет лимит и регистрирует новую попытку
// одним скриптом, поэтому параллельные запросы не превышают лимит.
func (w *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	const op = "ratelimit.RedisWindow.Allow"
	now := w.now()
	cutoff := now.Add(-w.window).UnixMicro()

	res, err := allowScript.Run(ctx, w.client, []string{w.prefix + key},
		strconv.FormatInt(cutoff, 10),
		strconv.FormatInt(now.UnixMicro(), 10),
		w.limit,
		w.window.Milliseconds(),
		uuid.NewString(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res == 1, nil
}
