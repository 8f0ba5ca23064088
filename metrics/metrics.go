// Package metrics exposes Prometheus collectors for the registry core and a
// standalone metrics server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "document_registry"

var (
	// RegistrationsTotal counts finalized document registrations by variant.
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Finalized document registrations by variant.",
	}, []string{"variant"})

	// RegistrationErrorsTotal counts registrations aborted by stage.
	RegistrationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_errors_total",
		Help:      "Registrations aborted before local persistence, by failing stage.",
	}, []string{"stage"})

	// VerificationsTotal counts verification calls by outcome.
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Verification calls by outcome.",
	}, []string{"outcome"})

	// FlagOpsTotal counts finalized flag operations by result.
	FlagOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flag_ops_total",
		Help:      "Finalized flag operations by result.",
	}, []string{"result"})

	// LedgerWaitSeconds observes the finalization wait of ledger writes.
	LedgerWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ledger_wait_seconds",
		Help:      "Time spent waiting for ledger write finalization.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"op"})
)

// Server serves the Prometheus scrape endpoint on its own listener.
type Server struct {
	srv *http.Server
}

// New creates a metrics server bound to listenAddr.
func New(listenAddr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe blocks serving the scrape endpoint.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
