package factory

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes recorded by Metrics.
const (
	OutcomeOK            = "ok"
	OutcomeMalformed     = "malformed_uri"
	OutcomeUnrecognized  = "unrecognized_uri"
	OutcomeCredential    = "credential_file"
	OutcomeMissingTarget = "missing_target"
	OutcomeFailed        = "construction_failed"
)

// Metrics counts driver resolutions.
type Metrics struct {
	Resolutions *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics creates the resolution metrics and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "driver_resolutions_total",
				Help:      "Driver URI resolutions by claiming provider, API family and outcome",
			},
			[]string{"provider", "family", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "driver_resolution_duration_seconds",
				Help:      "Time spent resolving a driver URI, construction included",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
			[]string{"provider", "family"},
		),
	}
}

func (m *Metrics) observe(provider, family string, err error, start time.Time) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "none"
	}
	m.Resolutions.WithLabelValues(provider, family, Outcome(err)).Inc()
	m.Duration.WithLabelValues(provider, family).Observe(time.Since(start).Seconds())
}

// Outcome classifies a resolution error into one of the Outcome constants.
func Outcome(err error) string {
	var (
		malformed     *MalformedURIError
		unrecognized  *UnrecognizedURIError
		credential    *CredentialFileError
		missingTarget *MissingTargetError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &malformed):
		return OutcomeMalformed
	case errors.As(err, &unrecognized):
		return OutcomeUnrecognized
	case errors.As(err, &credential):
		return OutcomeCredential
	case errors.As(err, &missingTarget):
		return OutcomeMissingTarget
	}
	return OutcomeFailed
}
