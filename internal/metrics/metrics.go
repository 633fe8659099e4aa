// Package metrics holds the OpenTelemetry instruments of the service and the
// Prometheus exporter serving them.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	export "go.opentelemetry.io/otel/sdk/export/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregator/histogram"
	controller "go.opentelemetry.io/otel/sdk/metric/controller/basic"
	processor "go.opentelemetry.io/otel/sdk/metric/processor/basic"
	selector "go.opentelemetry.io/otel/sdk/metric/selector/simple"
)

var (
	opKey     = attribute.Key("op")
	kindKey   = attribute.Key("kind")
	statusKey = attribute.Key("status")
	methodKey = attribute.Key("method")
)

// NewExporter builds a pull based Prometheus exporter. Its ServeHTTP method is
// the /metrics handler and its MeterProvider feeds the global meter.
func NewExporter() (*prometheus.Exporter, error) {
	config := prometheus.Config{}
	c := controller.New(
		processor.New(
			selector.NewWithHistogramDistribution(
				histogram.WithExplicitBoundaries(config.DefaultHistogramBoundaries),
			),
			export.CumulativeExportKindSelector(),
			processor.WithMemory(true),
		),
	)

	return prometheus.New(config, c)
}

// Client records upstream fetches and served requests. A nil *Client is valid
// and records nothing.
type Client struct {
	pageFetches  metric.Int64Counter
	fetchErrors  metric.Int64Counter
	fetchLatency metric.Int64ValueRecorder
	completed    metric.Int64Counter
}

func New(meter metric.Meter) *Client {
	must := metric.Must(meter)

	return &Client{
		pageFetches: must.NewInt64Counter(
			"hashnode/page_fetch_count",
			metric.WithDescription("Count of successful GraphQL round trips, by operation"),
		),
		fetchErrors: must.NewInt64Counter(
			"hashnode/fetch_error_count",
			metric.WithDescription("Count of failed GraphQL round trips, by operation and failure kind"),
		),
		fetchLatency: must.NewInt64ValueRecorder(
			"hashnode/page_fetch_latency_ms",
			metric.WithDescription("Latency of GraphQL round trips in milliseconds"),
		),
		completed: must.NewInt64Counter(
			"http/server/completed_count",
			metric.WithDescription("Count of completed requests, by HTTP method and response status"),
		),
	}
}

func (c *Client) PageFetched(ctx context.Context, op string, took time.Duration) {
	if c == nil {
		return
	}

	c.pageFetches.Add(ctx, 1, opKey.String(op))
	c.fetchLatency.Record(ctx, took.Milliseconds(), opKey.String(op))
}

func (c *Client) FetchFailed(ctx context.Context, op, kind string, took time.Duration) {
	if c == nil {
		return
	}

	c.fetchErrors.Add(ctx, 1, opKey.String(op), kindKey.String(kind))
	c.fetchLatency.Record(ctx, took.Milliseconds(), opKey.String(op))
}

// Middleware counts completed requests by method and status.
func (c *Client) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.completed.Add(r.Context(), 1,
			methodKey.String(r.Method),
			statusKey.String(strconv.Itoa(status)),
		)
	})
}
