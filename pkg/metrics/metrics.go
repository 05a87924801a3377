package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dataplane_translator"

var (
	DumpLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dump",
		Name:      "lookups_total",
		Help:      "Dump cache lookups by dump type and result (hit, miss, empty)",
	}, []string{"dump", "result"})

	WriteInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "writer",
		Name:      "invocations_total",
		Help:      "Writer handler invocations by operation and result",
	}, []string{"op", "result"})

	Reverts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "writer",
		Name:      "reverts_total",
		Help:      "Reverts of partially applied bulk updates by result",
	}, []string{"result"})

	ApplyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "writer",
		Name:      "apply_duration_seconds",
		Help:      "Duration of a bulk update including a possible revert",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	ReadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reader",
		Name:      "read_duration_seconds",
		Help:      "Duration of read operations",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	DeviceRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "device",
		Name:      "requests_total",
		Help:      "Device requests by message and result (ok, error, timeout)",
	}, []string{"message", "result"})

	Commits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "datastore",
		Name:      "commits_total",
		Help:      "Candidate commits by result",
	}, []string{"result"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		DumpLookups,
		WriteInvocations,
		Reverts,
		ApplyDuration,
		ReadDuration,
		DeviceRequests,
		Commits,
	}
}

// Register registers all collectors with reg. Collectors already registered
// with reg are skipped.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			are := prometheus.AlreadyRegisteredError{}
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
