package webhook

import (
	"bytes"
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	otelx "github.com/Kondo2021/redmine-messenger/internal/adapter/otel"
	"github.com/Kondo2021/redmine-messenger/internal/wire"
)

// Transport posts wire requests to their targets. Delivery failures are
// logged and swallowed; a broken chat endpoint must never surface back into
// the tracker's request cycle.
type Transport struct {
	client  *http.Client
	logger  *slog.Logger
	metrics *otelx.Metrics
}

// NewTransport builds a transport with the given timeout. When verifyTLS is
// false the target's certificate is not checked, matching self-hosted chat
// relays with private CAs.
func NewTransport(timeout time.Duration, verifyTLS bool, logger *slog.Logger, metrics *otelx.Metrics) *Transport {
	base := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !verifyTLS},
	}
	return &Transport{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Deliver posts one request. All failures are terminal for this request;
// there is no retry.
func (t *Transport) Deliver(ctx context.Context, req wire.Request) {
	deliveryID := uuid.NewString()
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		t.logger.Error("webhook request build failed",
			"delivery_id", deliveryID, "url", req.URL, "error", err)
		t.recordFailure(ctx)
		return
	}
	httpReq.Header.Set("Content-Type", req.ContentType)

	resp, err := t.client.Do(httpReq)
	elapsed := time.Since(start)
	if t.metrics != nil {
		t.metrics.DeliveryDuration.Record(ctx, elapsed.Seconds())
	}
	if err != nil {
		t.logger.Error("webhook delivery failed",
			"delivery_id", deliveryID, "url", req.URL, "error", err)
		t.recordFailure(ctx)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		t.logger.Warn("webhook delivery rejected",
			"delivery_id", deliveryID, "url", req.URL, "status", resp.StatusCode)
		t.recordFailure(ctx)
		return
	}

	if t.metrics != nil {
		t.metrics.DeliveriesSent.Add(ctx, 1)
	}
	t.logger.Debug("webhook delivered",
		"delivery_id", deliveryID, "url", req.URL,
		"status", resp.StatusCode, "duration_ms", elapsed.Milliseconds())
}

func (t *Transport) recordFailure(ctx context.Context) {
	if t.metrics != nil {
		t.metrics.DeliveriesFailed.Add(ctx, 1)
	}
}
