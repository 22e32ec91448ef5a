package polar

import (
	"time"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

type pagination struct {
	TotalCount int `json:"total_count"`
	MaxPage    int `json:"max_page"`
}

func (p pagination) toBilling() billing.Pagination {
	return billing.Pagination{TotalCount: p.TotalCount, MaxPage: p.MaxPage}
}

type listResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination pagination `json:"pagination"`
}

type customer struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	Name       *string        `json:"name"`
	ExternalID *string        `json:"external_id"`
	Metadata   map[string]any `json:"metadata"`
}

func (c customer) toBilling() *billing.Customer {
	return &billing.Customer{
		ID:         c.ID,
		Email:      c.Email,
		Name:       deref(c.Name),
		ExternalID: deref(c.ExternalID),
		Metadata:   c.Metadata,
	}
}

type product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsRecurring bool   `json:"is_recurring"`
}

func (p *product) toBilling() *billing.Product {
	if p == nil {
		return nil
	}
	return &billing.Product{ID: p.ID, Name: p.Name, IsRecurring: p.IsRecurring}
}

type subscription struct {
	ID                         string     `json:"id"`
	CustomerID                 string     `json:"customer_id"`
	ProductID                  string     `json:"product_id"`
	Status                     string     `json:"status"`
	RecurringInterval          *string    `json:"recurring_interval"`
	CancelAtPeriodEnd          bool       `json:"cancel_at_period_end"`
	CurrentPeriodEnd           *time.Time `json:"current_period_end"`
	CustomerCancellationReason *string    `json:"customer_cancellation_reason"`
	Product                    *product   `json:"product"`
}

func (s subscription) toBilling() billing.Subscription {
	return billing.Subscription{
		ID:                         s.ID,
		CustomerID:                 s.CustomerID,
		ProductID:                  s.ProductID,
		Status:                     billing.SubscriptionStatus(s.Status),
		RecurringInterval:          s.RecurringInterval,
		CancelAtPeriodEnd:          s.CancelAtPeriodEnd,
		CurrentPeriodEnd:           s.CurrentPeriodEnd,
		CustomerCancellationReason: s.CustomerCancellationReason,
		Product:                    s.Product.toBilling(),
	}
}

func (s *subscription) toBillingPtr() *billing.Subscription {
	out := s.toBilling()
	return &out
}

type benefitGrant struct {
	ID        string    `json:"id"`
	BenefitID string    `json:"benefit_id"`
	GrantedAt time.Time `json:"granted_at"`
}

// customerState is the response of GET /v1/customers/{id}/state. Active
// subscriptions in the state carry no nested product.
type customerState struct {
	ID                  string         `json:"id"`
	ActiveSubscriptions []subscription `json:"active_subscriptions"`
	GrantedBenefits     []benefitGrant `json:"granted_benefits"`
}

func (s customerState) toBilling() *billing.CustomerState {
	out := &billing.CustomerState{
		CustomerID:          s.ID,
		GrantedBenefits:     make([]billing.BenefitGrant, 0, len(s.GrantedBenefits)),
		ActiveSubscriptions: make([]billing.Subscription, 0, len(s.ActiveSubscriptions)),
	}
	for _, g := range s.GrantedBenefits {
		out.GrantedBenefits = append(out.GrantedBenefits, billing.BenefitGrant(g))
	}
	for _, sub := range s.ActiveSubscriptions {
		sub.CustomerID = s.ID
		out.ActiveSubscriptions = append(out.ActiveSubscriptions, sub.toBilling())
	}
	return out
}

type order struct {
	ID         string   `json:"id"`
	CustomerID string   `json:"customer_id"`
	Paid       bool     `json:"paid"`
	Status     string   `json:"status"`
	Product    *product `json:"product"`
}

func (o order) toBilling() billing.Order {
	return billing.Order{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Paid:       o.Paid,
		Status:     billing.OrderStatus(o.Status),
		Product:    o.Product.toBilling(),
	}
}

type checkoutCreate struct {
	Products           []string          `json:"products"`
	CustomerID         string            `json:"customer_id,omitempty"`
	ExternalCustomerID string            `json:"external_customer_id,omitempty"`
	CustomerEmail      string            `json:"customer_email,omitempty"`
	CustomerName       string            `json:"customer_name,omitempty"`
	SuccessURL         string            `json:"success_url,omitempty"`
	Amount             *int64            `json:"amount,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type checkout struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type customerSessionCreate struct {
	CustomerID string `json:"customer_id"`
	ReturnURL  string `json:"return_url,omitempty"`
}

type customerSession struct {
	Token             string    `json:"token"`
	CustomerPortalURL string    `json:"customer_portal_url"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type subscriptionUpdate struct {
	CancelAtPeriodEnd *bool  `json:"cancel_at_period_end,omitempty"`
	ProductID         string `json:"product_id,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
