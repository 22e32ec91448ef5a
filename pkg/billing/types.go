package billing

import (
	"strings"
	"time"
)

// User is the authenticated platform user. Owned by the identity collaborator.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DisplayName returns the user's name or, when empty, the local part of the email.
func (u User) DisplayName() string {
	return DisplayName(u.Name, u.Email)
}

// DisplayName applies the greeting rule used by every notification:
// the name when present, otherwise everything before the first '@' of email.
func DisplayName(name, email string) string {
	if name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// CustomerMapping links a platform user to a payments-provider customer.
// There is at most one mapping per UserID.
type CustomerMapping struct {
	UserID     string         `json:"userId"`
	CustomerID string         `json:"customerId"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Customer is a payments-provider customer record.
type Customer struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	ExternalID string         `json:"externalId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Product is the catalog item a subscription or order refers to.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsRecurring bool   `json:"isRecurring"`
}

// isOneTime reports whether p is present and explicitly non-recurring.
// A missing product is neither one-time nor recurring.
func isOneTime(p *Product) bool {
	return p != nil && !p.IsRecurring
}

// SubscriptionStatus mirrors the provider's subscription lifecycle.
type SubscriptionStatus string

const (
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusUnpaid            SubscriptionStatus = "unpaid"
)

// Subscription is a provider-owned subscription. It is only mutated through
// explicit cancel, revoke or update calls on the Provider.
type Subscription struct {
	ID                         string             `json:"id"`
	CustomerID                 string             `json:"customerId"`
	ProductID                  string             `json:"productId"`
	Status                     SubscriptionStatus `json:"status"`
	RecurringInterval          *string            `json:"recurringInterval"`
	CancelAtPeriodEnd          bool               `json:"cancelAtPeriodEnd"`
	CurrentPeriodEnd           *time.Time         `json:"currentPeriodEnd,omitempty"`
	CustomerCancellationReason *string            `json:"customerCancellationReason,omitempty"`
	Product                    *Product           `json:"product,omitempty"`
}

func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// IsRecurringPlan reports whether s bills on an interval, as opposed to
// placeholder subscriptions created for one-time products.
func (s *Subscription) IsRecurringPlan() bool {
	return s != nil && s.RecurringInterval != nil
}

// BenefitGrant is a provider-tracked entitlement that is not necessarily tied
// to a subscription, e.g. access granted manually.
type BenefitGrant struct {
	ID        string    `json:"id"`
	BenefitID string    `json:"benefitId"`
	GrantedAt time.Time `json:"grantedAt"`
}

// CustomerState is the provider-computed snapshot of a customer's benefit
// grants and active subscriptions.
type CustomerState struct {
	CustomerID          string         `json:"customerId"`
	GrantedBenefits     []BenefitGrant `json:"grantedBenefits"`
	ActiveSubscriptions []Subscription `json:"activeSubscriptions"`
}

func (s *CustomerState) hasBenefitGrant() bool {
	return s != nil && len(s.GrantedBenefits) > 0
}

func (s *CustomerState) hasActiveSubscription() bool {
	return s != nil && len(s.ActiveSubscriptions) > 0
}

// OrderStatus mirrors the provider's order lifecycle.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusRefunded          OrderStatus = "refunded"
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
)

// Order is a purchase record.
type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customerId"`
	Paid       bool        `json:"paid"`
	Status     OrderStatus `json:"status"`
	Product    *Product    `json:"product,omitempty"`
}

// IsPaidLifetime reports whether the order grants lifetime access: it is paid,
// no longer pending, and bought a non-recurring product.
func (o Order) IsPaidLifetime() bool {
	return o.Paid && o.Status != OrderStatusPending && isOneTime(o.Product)
}

// Pagination is the page metadata returned by list operations.
type Pagination struct {
	TotalCount int `json:"totalCount"`
	MaxPage    int `json:"maxPage"`
}

type OrderPage struct {
	Items      []Order
	Pagination Pagination
}

type SubscriptionPage struct {
	Items      []Subscription
	Pagination Pagination
}

// Entitlement is the resolved billing state of a user. It is computed on
// every request and never persisted.
type Entitlement struct {
	User
	Subscription    *Subscription `json:"subscription"`
	IsPremium       bool          `json:"isPremium"`
	IsLifetime      bool          `json:"isLifetime"`
	HasSubscription bool          `json:"hasSubscription"`
}

// CheckoutSession is a hosted checkout created by the provider.
type CheckoutSession struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// PortalSession is a pre-authenticated customer portal link.
type PortalSession struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}
