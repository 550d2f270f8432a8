package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yard_aggregation_runs_total",
		Help: "Number of pipeline runs started.",
	})
	runsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yard_aggregation_runs_skipped_total",
		Help: "Number of scheduler ticks skipped because a run was already in progress.",
	})
	familyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yard_aggregation_family_failures_total",
		Help: "Number of family-level aborts (token or listing failures).",
	}, []string{"family"})
	devicesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yard_aggregation_devices_persisted_total",
		Help: "Number of device records committed.",
	})
	deviceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yard_aggregation_device_failures_total",
		Help: "Number of device records dropped, by stage.",
	}, []string{"stage"})
)
