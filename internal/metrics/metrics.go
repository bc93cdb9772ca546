// Package metrics описывает счётчики Prometheus, которые обновляют сервисы хранилища.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы попытки входа.
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginRateLimited = "rate_limited"
)

// Metrics группирует счётчики сервиса.
type Metrics struct {
	LoginAttempts    *prometheus.CounterVec
	DecryptFailures  prometheus.Counter
	ThrottledRequest prometheus.Counter
}

// New регистрирует счётчики в reg. Для глобального реестра передаётся
// prometheus.DefaultRegisterer, в тестах prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familyvault",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		DecryptFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "familyvault",
			Name:      "entry_decrypt_failures_total",
			Help:      "Stored secrets that failed to decrypt while listing.",
		}),
		ThrottledRequest: f.NewCounter(prometheus.CounterOpts{
			Namespace: "familyvault",
			Name:      "throttled_requests_total",
			Help:      "Authenticated requests rejected by the API throttle.",
		}),
	}
}

// Login увеличивает счётчик попыток входа с указанным исходом.
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// DecryptFailed отмечает запись, секрет которой не удалось расшифровать.
func (m *Metrics) DecryptFailed() {
	if m == nil {
		return
	}
	m.DecryptFailures.Inc()
}

// Throttled отмечает запрос, отклонённый ограничителем частоты.
func (m *Metrics) Throttled() {
	if m == nil {
		return
	}
	m.ThrottledRequest.Inc()
}
