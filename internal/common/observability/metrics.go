package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"stock-bot/internal/common/logger"
)

// Observability records reply pipeline instruments through OpenTelemetry,
// exported on the Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	replyCounter  otelmetric.Int64Counter
	replyDuration otelmetric.Float64Histogram
	reconnects    otelmetric.Int64Counter
}

// New builds the meter provider. A nil registerer uses the default Prometheus
// registry. On exporter failure a no-op instance is returned.
func New(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	var opts []prometheus.Option
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Warn("otel prometheus exporter unavailable", map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	replyCounter, _ := meter.Int64Counter(
		"replies_processed",
		otelmetric.WithDescription("Number of stock replies produced"),
	)

	replyDuration, _ := meter.Float64Histogram(
		"reply_duration",
		otelmetric.WithDescription("Time from message receipt to reply handed to the transport"),
		otelmetric.WithUnit("ms"),
	)

	reconnects, _ := meter.Int64Counter(
		"session_reconnects",
		otelmetric.WithDescription("Connection drops by outcome"),
	)

	return &Observability{
		meterProvider: provider,
		replyCounter:  replyCounter,
		replyDuration: replyDuration,
		reconnects:    reconnects,
	}
}

// RecordReply counts one reply of the given kind and its latency.
func (o *Observability) RecordReply(ctx context.Context, kind string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("kind", kind))
	if o.replyCounter != nil {
		o.replyCounter.Add(ctx, 1, attrs)
	}
	if o.replyDuration != nil {
		o.replyDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

// RecordDisconnect counts a connection drop; outcome is "reconnect" or "logged_out".
func (o *Observability) RecordDisconnect(ctx context.Context, outcome string) {
	if o == nil || o.reconnects == nil {
		return
	}
	o.reconnects.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", outcome)))
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
