package paddle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

// Custom data keys attached to checkout transactions. Webhook parsing reads
// them back, since Paddle notifications carry only the customer id.
const (
	customDataEmail  = "email"
	customDataName   = "name"
	customDataUserID = "user_id"
)

var paidTransactionStatuses = []string{"paid", "completed"}

// Provider implements billing.Provider for Paddle.
type Provider struct {
	client *paddle.SDK
}

var _ billing.Provider = (*Provider)(nil)

// NewProvider creates a Paddle provider for the configured environment.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, errors.Join(ErrClientInit, err)
	}
	return &Provider{client: client}, nil
}

func (p *Provider) FindCustomerByEmail(ctx context.Context, email string) (*billing.Customer, error) {
	customers, err := p.client.CustomersClient.ListCustomers(ctx, &paddle.ListCustomersRequest{
		Email: []string{email},
	})
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	var found *billing.Customer
	err = customers.Iter(ctx, func(c *paddle.Customer) (bool, error) {
		found = &billing.Customer{ID: c.ID, Email: c.Email}
		if c.Name != nil {
			found.Name = *c.Name
		}
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return found, nil
}

// CustomerState lists active subscriptions; Paddle tracks no separate grants.
func (p *Provider) CustomerState(ctx context.Context, customerID string) (*billing.CustomerState, error) {
	subs, err := p.subscriptions(ctx, customerID, []string{"active", "trialing", "past_due"}, 0, 0)
	if err != nil {
		return nil, err
	}
	return &billing.CustomerState{CustomerID: customerID, ActiveSubscriptions: subs}, nil
}

// ListOrders maps paid transactions to orders. Paddle paginates by cursor,
// so the page is assembled by skipping earlier items and MaxPage stays unknown.
func (p *Provider) ListOrders(ctx context.Context, q billing.OrderQuery) (*billing.OrderPage, error) {
	txs, err := p.client.TransactionsClient.ListTransactions(ctx, &paddle.ListTransactionsRequest{
		CustomerID: []string{q.CustomerID},
		Status:     paidTransactionStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var (
		page = &billing.OrderPage{}
		skip = pageOffset(q.Page, q.Limit)
	)
	err = txs.Iter(ctx, func(tx *paddle.Transaction) (bool, error) {
		order := toOrder(tx)
		if !matchesBillingType(order, q.BillingType) {
			return true, nil
		}
		if skip > 0 {
			skip--
			return true, nil
		}
		page.Items = append(page.Items, order)
		return q.Limit <= 0 || len(page.Items) < q.Limit, nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	page.Pagination.TotalCount = len(page.Items)
	return page, nil
}

func (p *Provider) ListSubscriptions(ctx context.Context, q billing.SubscriptionQuery) (*billing.SubscriptionPage, error) {
	var status []string
	if q.ActiveOnly {
		status = []string{"active", "trialing", "past_due"}
	}
	subs, err := p.subscriptions(ctx, q.CustomerID, status, q.Page, q.Limit)
	if err != nil {
		return nil, err
	}
	return &billing.SubscriptionPage{
		Items:      subs,
		Pagination: billing.Pagination{TotalCount: len(subs)},
	}, nil
}

func (p *Provider) subscriptions(ctx context.Context, customerID string, status []string, page, limit int) ([]billing.Subscription, error) {
	list, err := p.client.SubscriptionsClient.ListSubscriptions(ctx, &paddle.ListSubscriptionsRequest{
		CustomerID: []string{customerID},
		Status:     status,
	})
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	var (
		out  []billing.Subscription
		skip = pageOffset(page, limit)
	)
	err = list.Iter(ctx, func(s *paddle.Subscription) (bool, error) {
		if skip > 0 {
			skip--
			return true, nil
		}
		out = append(out, *toSubscription(s))
		return limit <= 0 || len(out) < limit, nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}

func (p *Provider) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	s, err := p.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", subscriptionID, err)
	}
	return toSubscription(s), nil
}

func (p *Provider) RevokeSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	return p.cancel(ctx, subscriptionID, paddle.EffectiveFromImmediately)
}

func (p *Provider) CancelSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	return p.cancel(ctx, subscriptionID, paddle.EffectiveFromNextBillingPeriod)
}

func (p *Provider) cancel(ctx context.Context, subscriptionID string, from paddle.EffectiveFrom) (*billing.Subscription, error) {
	s, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: subscriptionID,
		EffectiveFrom:  paddle.PtrTo(from),
	})
	if err != nil {
		return nil, fmt.Errorf("cancel subscription %s: %w", subscriptionID, err)
	}
	return toSubscription(s), nil
}

// UpdateSubscriptionProduct is not offered: Paddle replaces subscription
// items by price, which needs proration settings this service does not model.
func (p *Provider) UpdateSubscriptionProduct(context.Context, string, string) (*billing.Subscription, error) {
	return nil, errors.Join(ErrProductChange, errors.ErrUnsupported)
}

// CreateCheckout opens a checkout transaction for the price req.ProductID.
func (p *Provider) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	if req.Amount != nil {
		return nil, errors.Join(ErrCustomPrice, errors.ErrUnsupported)
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.ProductID,
		Quantity: 1,
	})
	txReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: checkoutCustomData(req),
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil || *tx.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return &billing.CheckoutSession{
		ID:        tx.ID,
		URL:       *tx.Checkout.URL,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// CreatePortalSession returns the portal overview link. Paddle has no return URL.
func (p *Provider) CreatePortalSession(ctx context.Context, customerID, _ string) (*billing.PortalSession, error) {
	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID: customerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create portal session: %w", err)
	}
	if session.URLs.General.Overview == "" {
		return nil, ErrNoPortalURL
	}
	return &billing.PortalSession{
		URL:       session.URLs.General.Overview,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func checkoutCustomData(req billing.CheckoutRequest) paddle.CustomData {
	data := paddle.CustomData{}
	for k, v := range req.Metadata {
		data[k] = v
	}
	if req.CustomerEmail != "" {
		data[customDataEmail] = req.CustomerEmail
	}
	if req.CustomerName != "" {
		data[customDataName] = req.CustomerName
	}
	if req.ExternalCustomerID != "" {
		data[customDataUserID] = req.ExternalCustomerID
	}
	return data
}

func pageOffset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	return (page - 1) * limit
}

func matchesBillingType(o billing.Order, bt billing.BillingType) bool {
	switch bt {
	case billing.BillingTypeOneTime:
		return o.Product != nil && !o.Product.IsRecurring
	case billing.BillingTypeRecurring:
		return o.Product != nil && o.Product.IsRecurring
	default:
		return true
	}
}

func toOrder(tx *paddle.Transaction) billing.Order {
	order := billing.Order{
		ID:     tx.ID,
		Paid:   true,
		Status: billing.OrderStatusPaid,
		Product: &billing.Product{
			IsRecurring: tx.SubscriptionID != nil,
		},
	}
	if tx.CustomerID != nil {
		order.CustomerID = *tx.CustomerID
	}
	if len(tx.Items) > 0 {
		order.Product.ID = tx.Items[0].Price.ProductID
	}
	return order
}

func toSubscription(s *paddle.Subscription) *billing.Subscription {
	sub := &billing.Subscription{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Status:     subscriptionStatus(string(s.Status)),
		Product:    &billing.Product{IsRecurring: true},
	}
	if interval := string(s.BillingCycle.Interval); interval != "" {
		sub.RecurringInterval = &interval
	}
	if len(s.Items) > 0 {
		sub.ProductID = s.Items[0].Price.ProductID
		sub.Product.ID = sub.ProductID
	}
	if sc := s.ScheduledChange; sc != nil && string(sc.Action) == "cancel" {
		sub.CancelAtPeriodEnd = true
	}
	if period := s.CurrentBillingPeriod; period != nil {
		if end, err := time.Parse(time.RFC3339, period.EndsAt); err == nil {
			sub.CurrentPeriodEnd = &end
		}
	}
	return sub
}

// subscriptionStatus maps Paddle statuses onto the billing lifecycle.
// A paused subscription grants no access and is reported as unpaid.
func subscriptionStatus(s string) billing.SubscriptionStatus {
	switch s {
	case "active":
		return billing.StatusActive
	case "trialing":
		return billing.StatusTrialing
	case "past_due":
		return billing.StatusPastDue
	case "canceled":
		return billing.StatusCanceled
	case "paused":
		return billing.StatusUnpaid
	default:
		return billing.SubscriptionStatus(s)
	}
}
