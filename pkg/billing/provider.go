package billing

import "context"

// Provider is the payments-provider surface the billing core depends on.
// Implementations wrap a concrete provider API (see pkg/polar and pkg/paddle)
// and translate its objects into the types of this package. They are created
// once at process start and passed explicitly to every component.
type Provider interface {
	// FindCustomerByEmail returns the first customer with the given email,
	// or nil when there is none.
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)

	// CustomerState returns benefit grants and active subscriptions of a customer.
	CustomerState(ctx context.Context, customerID string) (*CustomerState, error)

	// ListOrders returns one page of a customer's orders.
	ListOrders(ctx context.Context, q OrderQuery) (*OrderPage, error)

	// ListSubscriptions returns one page of a customer's subscriptions.
	ListSubscriptions(ctx context.Context, q SubscriptionQuery) (*SubscriptionPage, error)

	// GetSubscription returns a subscription by id.
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// RevokeSubscription ends a subscription immediately, without waiting
	// for the end of the billing period.
	RevokeSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// CancelSubscription schedules cancellation at the end of the current period.
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// UpdateSubscriptionProduct moves a subscription to another product.
	UpdateSubscriptionProduct(ctx context.Context, subscriptionID, productID string) (*Subscription, error)

	// CreateCheckout creates a hosted checkout session.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// CreatePortalSession creates a customer portal session.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error)
}

// BillingType filters orders by the kind of product purchased.
type BillingType string

const (
	BillingTypeOneTime   BillingType = "one_time"
	BillingTypeRecurring BillingType = "recurring"
)

type OrderQuery struct {
	CustomerID  string
	BillingType BillingType
	Page        int
	Limit       int
}

type SubscriptionQuery struct {
	CustomerID string
	ActiveOnly bool
	Page       int
	Limit      int
}

// CheckoutRequest contains everything the provider needs to open a checkout.
type CheckoutRequest struct {
	ProductID          string
	CustomerID         string // provider customer, when already known
	ExternalCustomerID string // platform user id
	CustomerEmail      string
	CustomerName       string
	SuccessURL         string
	Amount             *int64 // custom price in minor units, for pay-what-you-want products
	Metadata           map[string]string
}
