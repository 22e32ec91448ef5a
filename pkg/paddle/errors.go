package paddle

import "errors"

var (
	ErrMissingAPIKey      = errors.New("paddle: API key is required")
	ErrInvalidEnvironment = errors.New("paddle: invalid environment")
	ErrClientInit         = errors.New("paddle: failed to create client")
	ErrNoCheckoutURL      = errors.New("paddle: no checkout URL returned")
	ErrNoPortalURL        = errors.New("paddle: no portal URL returned")
	ErrCustomPrice        = errors.New("paddle: custom amounts require a catalog price")
	ErrProductChange      = errors.New("paddle: product change is not supported")
)
