package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus instruments exported by the node.
type Metrics struct {
	registry *prometheus.Registry

	// AcceptedTotal counts committed state transitions per operation.
	AcceptedTotal *prometheus.CounterVec
	// RejectedTotal counts rolled-back state transitions per operation.
	RejectedTotal *prometheus.CounterVec
}

// NewMetrics registers the node instruments on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		AcceptedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "horizon",
			Name:      "transactions_accepted_total",
			Help:      "State transitions committed, by operation.",
		}, []string{"op"}),
		RejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "horizon",
			Name:      "transactions_rejected_total",
			Help:      "State transitions rolled back, by operation.",
		}, []string{"op"}),
	}
	registry.MustRegister(m.AcceptedTotal, m.RejectedTotal)
	return m
}

// Handler returns the ops HTTP handler exposing /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return router
}

// Serve blocks serving the ops handler on addr.
func (m *Metrics) Serve(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
