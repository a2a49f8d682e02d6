package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var loginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "console_login_attempts_total",
		Help: "Total number of login attempts through the console",
	},
	[]string{"result"},
)

func recordLoginAttempt(result string) {
	loginAttemptsTotal.WithLabelValues(result).Inc()
}

// MetricsHandler exposes the Prometheus registry behind basic auth.
type MetricsHandler struct {
	username    string
	password    string
	promHandler http.Handler
}

func NewMetricsHandler(username, password string) *MetricsHandler {
	return &MetricsHandler{
		username:    username,
		password:    password,
		promHandler: promhttp.Handler(),
	}
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authenticate(w, r) {
		return
	}
	h.promHandler.ServeHTTP(w, r)
}

func (h *MetricsHandler) authenticate(w http.ResponseWriter, r *http.Request) bool {
	username, password, ok := r.BasicAuth()
	if !ok || username != h.username || password != h.password {
		w.Header().Set("WWW-Authenticate", `Basic realm="Prometheus Metrics"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (h *MetricsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/metrics", h.ServeHTTP)
}
