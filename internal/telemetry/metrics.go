package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/coursedesk/console"

// Metrics holds the OpenTelemetry metric instruments for the console.
type Metrics struct {
	// Login metrics
	LoginAttemptsTotal metric.Int64Counter
	LoginFailuresTotal metric.Int64Counter

	// Session metrics
	TokenDecodeFailuresTotal metric.Int64Counter

	// Authorization metrics
	GuardRedirectsTotal metric.Int64Counter

	// Backend API metrics
	APIRequestDuration    metric.Float64Histogram
	APIRequestErrorsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// When no meter provider is configured the instruments are no-ops, so callers
// can record unconditionally.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.LoginAttemptsTotal, _ = meter.Int64Counter(
		"console.login.attempts.total",
		metric.WithDescription("Total number of credential exchange attempts"),
		metric.WithUnit("{attempt}"),
	)

	m.LoginFailuresTotal, _ = meter.Int64Counter(
		"console.login.failures.total",
		metric.WithDescription("Total number of rejected credential exchanges"),
		metric.WithUnit("{attempt}"),
	)

	m.TokenDecodeFailuresTotal, _ = meter.Int64Counter(
		"console.session.decode_failures.total",
		metric.WithDescription("Total number of session cookies that failed to decode"),
		metric.WithUnit("{token}"),
	)

	m.GuardRedirectsTotal, _ = meter.Int64Counter(
		"console.authz.redirects.total",
		metric.WithDescription("Total number of requests redirected by the authorization guard"),
		metric.WithUnit("{request}"),
	)

	m.APIRequestDuration, _ = meter.Float64Histogram(
		"console.api.request.duration",
		metric.WithDescription("Duration of backend API calls"),
		metric.WithUnit("ms"),
	)

	m.APIRequestErrorsTotal, _ = meter.Int64Counter(
		"console.api.request.errors.total",
		metric.WithDescription("Total number of failed backend API calls"),
		metric.WithUnit("{request}"),
	)

	return m
}
