package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels requests that completed.
	OutcomeSuccess = "success"
	// OutcomeError labels failed requests (upstream or pipeline issues).
	OutcomeError = "error"
)

var (
	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digital_shield",
			Name:      "chat_requests_total",
			Help:      "Total assistant chat requests handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	chatAttemptsPerRequest = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "digital_shield",
			Name:      "chat_endpoint_attempts",
			Help:      "Endpoint candidate attempts made per chat request.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
		},
	)

	chatDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "digital_shield",
			Name:      "chat_seconds",
			Help:      "Chat request latency in seconds, including retries and backoff.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	endpointSwitchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "digital_shield",
			Name:      "chat_endpoint_switches_total",
			Help:      "Times the resolved assistant path changed to a new candidate.",
		},
	)

	predictionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digital_shield",
			Name:      "prediction_requests_total",
			Help:      "Total loss prediction requests handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	predictionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "digital_shield",
			Name:      "prediction_seconds",
			Help:      "Loss prediction latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

// Register attaches digital-shield collectors to the supplied Prometheus
// registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		chatRequestsTotal,
		chatAttemptsPerRequest,
		chatDurationSeconds,
		endpointSwitchesTotal,
		predictionRequestsTotal,
		predictionDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveChat records one chat request.
func ObserveChat(duration time.Duration, attempts int, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	chatRequestsTotal.WithLabelValues(label).Inc()
	if attempts > 0 {
		chatAttemptsPerRequest.Observe(float64(attempts))
	}
	if duration < 0 {
		duration = 0
	}
	chatDurationSeconds.Observe(duration.Seconds())
}

// ObserveEndpointSwitch records the resolved assistant path changing.
func ObserveEndpointSwitch() {
	endpointSwitchesTotal.Inc()
}

// ObservePrediction records one loss prediction request.
func ObservePrediction(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	predictionRequestsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	predictionDurationSeconds.Observe(duration.Seconds())
}
