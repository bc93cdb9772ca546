package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/familyvault/internal/http/response"
	"github.com/magabrotheeeer/familyvault/internal/metrics"
)

const idleLimiterTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// throttle хранит token bucket на каждый адрес клиента.
type throttle struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

func (t *throttle) allow(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) > idleLimiterTTL {
		for k, v := range t.visitors {
			if now.Sub(v.lastSeen) > idleLimiterTTL {
				delete(t.visitors, k)
			}
		}
		t.lastSweep = now
	}

	v, ok := t.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.rps, t.burst)}
		t.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimitMiddleware ограничивает запросы с одного адреса до rps в секунду
// с запасом burst. Превышение даёт 429.
func RateLimitMiddleware(log *slog.Logger, rps float64, burst int, m *metrics.Metrics) func(http.Handler) http.Handler {
	t := &throttle{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !t.allow(ip, time.Now()) {
				m.Throttled()
				log.Warn("too many requests", slog.String("client", ip))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP возвращает адрес сокетного соединения без порта.
// Заголовки X-Forwarded-For и X-Real-IP не учитываются: их задаёт клиент.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
