package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

const (
	webhookIdHeader        = "svix-id"
	webhookTimestampHeader = "svix-timestamp"
	webhookSignatureHeader = "svix-signature"
)

var (
	ErrMissingWebhookHeaders = errors.New("missing webhook signature headers")
	ErrInvalidWebhook        = errors.New("invalid webhook delivery")
)

// WebhookVerifier checks the signature the identity provider puts on webhook
// deliveries. Verification, including the timestamp tolerance, is done by the
// svix SDK.
type WebhookVerifier struct {
	wh *svix.Webhook
}

// NewWebhookVerifier accepts the secret as shown in the provider dashboard,
// with or without the "whsec_" prefix.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is not set")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("can't decode webhook secret: %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

func (v *WebhookVerifier) Verify(headers http.Header, body []byte) error {
	if headers.Get(webhookIdHeader) == "" || headers.Get(webhookTimestampHeader) == "" || headers.Get(webhookSignatureHeader) == "" {
		return ErrMissingWebhookHeaders
	}
	if err := v.wh.Verify(body, headers); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}
	return nil
}

// Sign returns the delivery headers the verifier accepts for body.
func (v *WebhookVerifier) Sign(id string, at time.Time, body []byte) (http.Header, error) {
	signature, err := v.wh.Sign(id, at, body)
	if err != nil {
		return nil, fmt.Errorf("failed to sign webhook: %w", err)
	}
	h := http.Header{}
	h.Set(webhookIdHeader, id)
	h.Set(webhookTimestampHeader, strconv.FormatInt(at.Unix(), 10))
	h.Set(webhookSignatureHeader, signature)
	return h, nil
}
