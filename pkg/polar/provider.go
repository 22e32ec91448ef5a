package polar

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

var _ billing.Provider = (*Client)(nil)

func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*billing.Customer, error) {
	q := pageQuery(1, 1)
	q.Set("email", email)
	c.scope(q)

	var res listResponse[customer]
	if err := c.do(ctx, http.MethodGet, "/v1/customers/", q, nil, &res); err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, nil
	}
	return res.Items[0].toBilling(), nil
}

func (c *Client) CustomerState(ctx context.Context, customerID string) (*billing.CustomerState, error) {
	var res customerState
	if err := c.do(ctx, http.MethodGet, "/v1/customers/"+url.PathEscape(customerID)+"/state", nil, nil, &res); err != nil {
		return nil, err
	}
	return res.toBilling(), nil
}

func (c *Client) ListOrders(ctx context.Context, oq billing.OrderQuery) (*billing.OrderPage, error) {
	q := pageQuery(oq.Page, oq.Limit)
	q.Set("customer_id", oq.CustomerID)
	if oq.BillingType != "" {
		q.Set("product_billing_type", string(oq.BillingType))
	}
	c.scope(q)

	var res listResponse[order]
	if err := c.do(ctx, http.MethodGet, "/v1/orders/", q, nil, &res); err != nil {
		return nil, err
	}
	page := &billing.OrderPage{
		Items:      make([]billing.Order, 0, len(res.Items)),
		Pagination: res.Pagination.toBilling(),
	}
	for _, o := range res.Items {
		page.Items = append(page.Items, o.toBilling())
	}
	return page, nil
}

func (c *Client) ListSubscriptions(ctx context.Context, sq billing.SubscriptionQuery) (*billing.SubscriptionPage, error) {
	q := pageQuery(sq.Page, sq.Limit)
	q.Set("customer_id", sq.CustomerID)
	if sq.ActiveOnly {
		q.Set("active", strconv.FormatBool(true))
	}
	c.scope(q)

	var res listResponse[subscription]
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/", q, nil, &res); err != nil {
		return nil, err
	}
	page := &billing.SubscriptionPage{
		Items:      make([]billing.Subscription, 0, len(res.Items)),
		Pagination: res.Pagination.toBilling(),
	}
	for _, s := range res.Items {
		page.Items = append(page.Items, s.toBilling())
	}
	return page, nil
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	var res subscription
	if err := c.do(ctx, http.MethodGet, subscriptionPath(subscriptionID), nil, nil, &res); err != nil {
		return nil, err
	}
	return res.toBillingPtr(), nil
}

// RevokeSubscription ends the subscription immediately.
func (c *Client) RevokeSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	var res subscription
	if err := c.do(ctx, http.MethodDelete, subscriptionPath(subscriptionID), nil, nil, &res); err != nil {
		return nil, err
	}
	return res.toBillingPtr(), nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	cancel := true
	return c.updateSubscription(ctx, subscriptionID, subscriptionUpdate{CancelAtPeriodEnd: &cancel})
}

func (c *Client) UpdateSubscriptionProduct(ctx context.Context, subscriptionID, productID string) (*billing.Subscription, error) {
	return c.updateSubscription(ctx, subscriptionID, subscriptionUpdate{ProductID: productID})
}

func (c *Client) updateSubscription(ctx context.Context, id string, upd subscriptionUpdate) (*billing.Subscription, error) {
	var res subscription
	if err := c.do(ctx, http.MethodPatch, subscriptionPath(id), nil, upd, &res); err != nil {
		return nil, err
	}
	return res.toBillingPtr(), nil
}

func (c *Client) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	body := checkoutCreate{
		Products:           []string{req.ProductID},
		CustomerID:         req.CustomerID,
		ExternalCustomerID: req.ExternalCustomerID,
		CustomerEmail:      req.CustomerEmail,
		CustomerName:       req.CustomerName,
		SuccessURL:         req.SuccessURL,
		Amount:             req.Amount,
		Metadata:           req.Metadata,
	}

	var res checkout
	if err := c.do(ctx, http.MethodPost, "/v1/checkouts/", nil, body, &res); err != nil {
		return nil, err
	}
	return &billing.CheckoutSession{ID: res.ID, URL: res.URL, ExpiresAt: res.ExpiresAt}, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*billing.PortalSession, error) {
	var res customerSession
	body := customerSessionCreate{CustomerID: customerID, ReturnURL: returnURL}
	if err := c.do(ctx, http.MethodPost, "/v1/customer-sessions/", nil, body, &res); err != nil {
		return nil, err
	}
	return &billing.PortalSession{URL: res.CustomerPortalURL, ExpiresAt: res.ExpiresAt}, nil
}

// scope restricts list queries to the configured organization.
func (c *Client) scope(q url.Values) {
	if c.organizationID != "" {
		q.Set("organization_id", c.organizationID)
	}
}

func subscriptionPath(id string) string {
	return "/v1/subscriptions/" + url.PathEscape(id)
}
