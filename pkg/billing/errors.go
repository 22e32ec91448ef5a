package billing

import "errors"

var (
	ErrUnauthenticated = errors.New("billing: not authenticated")
	ErrNoCustomer      = errors.New("billing: no payments customer for user")
	ErrNoSubscription  = errors.New("billing: no active subscription")
	ErrMissingProduct  = errors.New("billing: product id is required")

	ErrCheckoutFailed     = errors.New("billing: failed to create checkout session")
	ErrPortalFailed       = errors.New("billing: failed to create customer portal session")
	ErrSubscriptionUpdate = errors.New("billing: failed to update subscription")

	ErrMappingStore = errors.New("billing: customer mapping store failure")
	ErrProviderCall = errors.New("billing: provider call failed")
)

// ErrMappingNotFound is returned by MappingStore.GetByUserID when the user has no mapping.
var ErrMappingNotFound = errors.New("billing: customer mapping not found")
