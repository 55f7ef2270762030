package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "messenger"

// Metrics holds the pipeline's metric instruments. A nil *Metrics is safe
// to carry; callers nil-check before recording.
type Metrics struct {
	Composed         metric.Int64Counter
	Suppressed       metric.Int64Counter
	DeliveriesSent   metric.Int64Counter
	DeliveriesFailed metric.Int64Counter
	DeliveryDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Composed, err = meter.Int64Counter("messenger.notifications.composed",
		metric.WithDescription("Number of notifications composed"))
	if err != nil {
		return nil, err
	}

	m.Suppressed, err = meter.Int64Counter("messenger.notifications.suppressed",
		metric.WithDescription("Number of updates suppressed by the classifier"))
	if err != nil {
		return nil, err
	}

	m.DeliveriesSent, err = meter.Int64Counter("messenger.deliveries.sent",
		metric.WithDescription("Number of webhook deliveries accepted by the target"))
	if err != nil {
		return nil, err
	}

	m.DeliveriesFailed, err = meter.Int64Counter("messenger.deliveries.failed",
		metric.WithDescription("Number of webhook deliveries that failed or were rejected"))
	if err != nil {
		return nil, err
	}

	m.DeliveryDuration, err = meter.Float64Histogram("messenger.delivery.duration_seconds",
		metric.WithDescription("Webhook delivery duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
