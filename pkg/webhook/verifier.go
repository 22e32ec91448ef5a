package webhook

import (
	"net/http"
	"time"
)

// Verifier authenticates a delivery. It returns ErrSecretNotConfigured when
// no secret is available and any other error for a rejected delivery.
type Verifier interface {
	Verify(h http.Header, body []byte) error
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(h http.Header, body []byte) error

func (f VerifierFunc) Verify(h http.Header, body []byte) error { return f(h, body) }

// StandardVerifier verifies Standard Webhooks signatures, the scheme used
// by Polar.
type StandardVerifier struct {
	Secret    string
	Tolerance time.Duration
}

// NewStandardVerifier returns a verifier with the default tolerance.
func NewStandardVerifier(secret string) StandardVerifier {
	return StandardVerifier{Secret: secret, Tolerance: DefaultTolerance}
}

func (v StandardVerifier) Verify(h http.Header, body []byte) error {
	if v.Secret == "" {
		return ErrSecretNotConfigured
	}
	headers, err := ExtractSignatureHeaders(h)
	if err != nil {
		return err
	}
	return VerifySignature(v.Secret, body, headers, v.Tolerance)
}
