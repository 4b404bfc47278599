package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "driver_presence"

var (
	// HTTP metrics of the local control API
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of control API requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Control API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of control API requests being processed",
		},
		[]string{"service"},
	)

	// Telemetry
	TelemetryDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_decisions_total",
			Help:      "Reporter cycles by outcome (no_data, new_data, failed)",
		},
		[]string{"result"},
	)

	TelemetryPushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "telemetry_push_duration_seconds",
			Help:      "Duration of telemetry PUT requests",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Realtime channel
	RealtimeConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_connected",
			Help:      "1 when the dispatch channel is connected",
		},
	)

	RealtimeReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_reconnects_total",
			Help:      "Reconnect attempts of the dispatch channel",
		},
		[]string{"status"},
	)

	RealtimeRegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_registrations_total",
			Help:      "Driver registrations on the dispatch channel",
		},
		[]string{"status"},
	)

	// Session
	SessionRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_refreshes_total",
			Help:      "Access token refresh attempts",
		},
		[]string{"status"},
	)

	// Availability
	AvailabilityTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_transitions_total",
			Help:      "Online/offline transitions by target and outcome",
		},
		[]string{"target", "status"},
	)

	DriverOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "driver_online",
			Help:      "1 when the driver is online",
		},
	)

	// Dispatch
	RideOffersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ride_offers_total",
			Help:      "Inbound ride offers by outcome (surfaced, duplicate, expired)",
		},
		[]string{"outcome"},
	)

	// Broker
	BrokerMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_messages_published_total",
			Help:      "Availability events published to the broker",
		},
		[]string{"broker", "status"},
	)

	// Store
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Key-value store operations",
		},
		[]string{"backend", "operation", "status"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, code).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, code).Observe(duration.Seconds())
}

// RecordTelemetryPush records the duration of a telemetry push
func RecordTelemetryPush(duration time.Duration) {
	TelemetryPushDuration.Observe(duration.Seconds())
}

// RecordReconnect records a reconnect attempt of the dispatch channel
func RecordReconnect(err error) {
	RealtimeReconnectsTotal.WithLabelValues(status(err)).Inc()
}

// RecordRegistration records a registration on the dispatch channel
func RecordRegistration(err error) {
	RealtimeRegistrationsTotal.WithLabelValues(status(err)).Inc()
}

// SetRealtimeConnected flips the connection gauge
func SetRealtimeConnected(connected bool) {
	if connected {
		RealtimeConnected.Set(1)
		return
	}
	RealtimeConnected.Set(0)
}

// RecordSessionRefresh records a token refresh attempt
func RecordSessionRefresh(err error) {
	SessionRefreshesTotal.WithLabelValues(status(err)).Inc()
}

// RecordTransition records an availability transition and updates the online gauge on success
func RecordTransition(online bool, err error) {
	target := "offline"
	if online {
		target = "online"
	}
	AvailabilityTransitionsTotal.WithLabelValues(target, status(err)).Inc()
	if err == nil {
		if online {
			DriverOnline.Set(1)
		} else {
			DriverOnline.Set(0)
		}
	}
}

// RecordBrokerPublish records broker publish metrics
func RecordBrokerPublish(broker string, err error) {
	BrokerMessagesPublished.WithLabelValues(broker, status(err)).Inc()
}

// RecordStoreOperation records a key-value store operation
func RecordStoreOperation(backend, operation string, err error) {
	StoreOperationsTotal.WithLabelValues(backend, operation, status(err)).Inc()
}
