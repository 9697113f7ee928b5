package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the archival subsystem.
type Metrics struct {
	ArchivesCreated    prometheus.Counter
	ExpirationsApplied prometheus.Counter
	ExpirationSweeps   prometheus.Counter
	ResetsPerformed    prometheus.Counter
}

// New creates and registers all archival metrics.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on a custom registerer; tests use
// a throwaway registry to avoid duplicate registration panics.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ArchivesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ndi_archives_created_total",
			Help: "Total number of yearly archives created.",
		}),
		ExpirationsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "ndi_archive_expirations_applied_total",
			Help: "Total number of archives anonymized after their retention window elapsed.",
		}),
		ExpirationSweeps: factory.NewCounter(prometheus.CounterOpts{
			Name: "ndi_archive_expiration_sweeps_total",
			Help: "Total number of full expiration sweeps across all archives.",
		}),
		ResetsPerformed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ndi_data_resets_total",
			Help: "Total number of destructive live-data resets performed.",
		}),
	}
}
