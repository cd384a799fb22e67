package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remindersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "license_reminders_total",
		Help: "Expiry reminders by outcome.",
	}, []string{"kind", "result"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "license_reminder_scan_duration_seconds",
		Help:    "Duration of reminder scans.",
		Buckets: prometheus.DefBuckets,
	})
)
