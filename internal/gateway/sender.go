package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jmerrifield20/modbot/internal/metrics"
	"go.uber.org/zap"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Modbot-Signature"

// Delivery pushes outbound items to the chat platform adapter.
type Delivery interface {
	Deliver(ctx context.Context, it Item) error
}

// WebhookSender POSTs each item as JSON to a platform adapter.
type WebhookSender struct {
	url    string
	secret string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookSender creates a WebhookSender. client should retry transient
// failures; see httpclient.New.
func NewWebhookSender(url, secret string, client *http.Client, logger *zap.Logger) *WebhookSender {
	return &WebhookSender{url: url, secret: secret, client: client, logger: logger}
}

// Deliver implements Delivery.
func (w *WebhookSender) Deliver(ctx context.Context, it Item) error {
	body, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, w.secret))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		metrics.RecordOutbound(false)
		return fmt.Errorf("deliver item %d: %w", it.Seq, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024)) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordOutbound(false)
		return fmt.Errorf("deliver item %d: HTTP %d", it.Seq, resp.StatusCode)
	}
	metrics.RecordOutbound(true)
	w.logger.Debug("outbound delivered", zap.Int64("seq", it.Seq), zap.String("kind", it.Kind))
	return nil
}

// Sign computes the signature sent in SignatureHeader.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// NoopSender logs outbound items instead of delivering them. Items remain
// available from the outbox.
type NoopSender struct {
	logger *zap.Logger
}

// NewNoopSender creates a NoopSender backed by the given logger.
func NewNoopSender(logger *zap.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

// Deliver logs the item and returns nil.
func (n *NoopSender) Deliver(_ context.Context, it Item) error {
	n.logger.Info("outbound (not delivered)",
		zap.Int64("seq", it.Seq),
		zap.String("kind", it.Kind),
		zap.String("surface", string(it.Surface.Kind)),
		zap.String("target", it.Surface.ID),
		zap.String("text", it.Text),
		zap.String("emoji", it.Emoji),
	)
	return nil
}
