package paddle

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/dmitrymomot/paywall/pkg/webhook"
)

// SignatureHeader carries the Paddle webhook signature.
const SignatureHeader = "Paddle-Signature"

// Verifier checks Paddle-Signature headers with the SDK verifier.
type Verifier struct {
	sdk *paddle.WebhookVerifier
}

var _ webhook.Verifier = (*Verifier)(nil)

// NewVerifier returns a verifier for secret. An empty secret yields a
// verifier that rejects every delivery as unconfigured.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return &Verifier{}
	}
	return &Verifier{sdk: paddle.NewWebhookVerifier(secret)}
}

func (v *Verifier) Verify(h http.Header, body []byte) error {
	if v.sdk == nil {
		return webhook.ErrSecretNotConfigured
	}
	if h.Get(SignatureHeader) == "" {
		return webhook.ErrMissingHeaders
	}

	// The SDK verifies requests, so the delivery is rebuilt around the body.
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "/", bytes.NewReader(body))
	if err != nil {
		return errors.Join(webhook.ErrSignatureMismatch, err)
	}
	req.Header.Set(SignatureHeader, h.Get(SignatureHeader))

	ok, err := v.sdk.Verify(req)
	if err != nil {
		return errors.Join(webhook.ErrSignatureMismatch, err)
	}
	if !ok {
		return webhook.ErrSignatureMismatch
	}
	return nil
}
