// Package ratelimit ограничивает число попыток входа с одного сетевого адреса
// в скользящем окне времени.
//
// Window хранит журнал попыток в памяти процесса, RedisWindow хранит его в отсортированном
// множестве Redis, чтобы лимит был общим для нескольких экземпляров сервера.
// Отклонённые попытки в журнал не попадают: после того как окно пройдёт,
// попытки снова принимаются.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter решает, можно ли принять очередную попытку для ключа.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Window реализует скользящее окно в памяти процесса.
type Window struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	hits      map[string][]time.Time
	lastSweep time.Time
}

// NewWindow создаёт окно, пропускающее не более limit попыток за window.
func NewWindow(limit int, window time.Duration) *Window {
	return &Window{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// WithClock подменяет источник времени, используется в тестах.
func (w *Window) WithClock(now func() time.Time) *Window {
	w.now = now
	return w
}

// Allow регистрирует попытку и возвращает false, если лимит в окне исчерпан.
func (w *Window) Allow(_ context.Context, key string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	if now.Sub(w.lastSweep) > w.window {
		w.sweep(cutoff)
		w.lastSweep = now
	}

	recent := prune(w.hits[key], cutoff)
	if len(recent) >= w.limit {
		w.hits[key] = recent
		return false, nil
	}
	w.hits[key] = append(recent, now)
	return true, nil
}

func (w *Window) sweep(cutoff time.Time) {
	for key, hits := range w.hits {
		recent := prune(hits, cutoff)
		if len(recent) == 0 {
			delete(w.hits, key)
			continue
		}
		w.hits[key] = recent
	}
}

// prune отбрасывает попытки не позже cutoff. hits упорядочены по времени.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
