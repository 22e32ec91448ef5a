package webhook

import "errors"

var (
	ErrSecretNotConfigured = errors.New("webhook: signing secret is not configured")
	ErrMissingHeaders      = errors.New("webhook: missing signature headers")
	ErrInvalidTimestamp    = errors.New("webhook: invalid signature timestamp")
	ErrTimestampOutOfRange = errors.New("webhook: signature timestamp outside tolerance")
	ErrSignatureMismatch   = errors.New("webhook: no matching signature")
	ErrInvalidPayload      = errors.New("webhook: invalid payload")
	ErrDispatchFailed      = errors.New("webhook: failed to schedule dispatch")
)
