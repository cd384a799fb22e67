package license

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "license_activations_total",
		Help: "License activation attempts by outcome.",
	}, []string{"result"})

	accessChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "license_access_checks_total",
		Help: "Access evaluations by resulting state.",
	}, []string{"state"})
)
