package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

var (
	ErrInvalidBody   = errors.New("api: invalid request body")
	ErrInvalidAmount = errors.New("api: amount must be positive")
)

// publicError is what a client sees for err. Internal detail never leaves
// the service.
type publicError struct {
	status  int
	message string
}

var errorTable = []struct {
	target error
	publicError
}{
	{billing.ErrUnauthenticated, publicError{http.StatusUnauthorized, "not authenticated"}},
	{ErrInvalidBody, publicError{http.StatusBadRequest, "invalid request body"}},
	{ErrInvalidAmount, publicError{http.StatusBadRequest, "amount must be positive"}},
	{billing.ErrMissingProduct, publicError{http.StatusBadRequest, "productId is required"}},
	{billing.ErrNoCustomer, publicError{http.StatusNotFound, "no billing account for this user"}},
	{billing.ErrNoSubscription, publicError{http.StatusNotFound, "no active subscription"}},
	{billing.ErrCheckoutFailed, publicError{http.StatusBadGateway, "failed to create checkout session"}},
	{billing.ErrPortalFailed, publicError{http.StatusBadGateway, "failed to create customer portal session"}},
	{billing.ErrSubscriptionUpdate, publicError{http.StatusBadGateway, "failed to update subscription"}},
	{billing.ErrMappingStore, publicError{http.StatusServiceUnavailable, "billing is temporarily unavailable"}},
	{billing.ErrProviderCall, publicError{http.StatusServiceUnavailable, "billing is temporarily unavailable"}},
}

func classify(err error) publicError {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			return e.publicError
		}
	}
	return publicError{http.StatusInternalServerError, "internal error"}
}
