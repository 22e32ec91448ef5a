package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

var errUpstream = errors.New("upstream unavailable")

// fakeProvider is an in-memory provider. Revocations mutate its subscription
// list, so consecutive resolutions observe the post-revocation state.
type fakeProvider struct {
	mu sync.Mutex

	customers     map[string]*billing.Customer // by email
	states        map[string]*billing.CustomerState
	orderPages    map[int]billing.OrderPage
	orderErrPages map[int]bool
	orderMaxPage  int
	subscriptions []billing.Subscription

	subPageErrs     map[int]bool
	subPageSize     int
	subMaxPage      int
	findErr         error
	findDelay       time.Duration
	stateErr        error
	revokeErr       map[string]error
	checkoutErr     error
	lastCheckout    *billing.CheckoutRequest
	revoked         []string
	cancelled       []string
	findCalls       int
	orderPagesRead  []int
	subscriptionQry []billing.SubscriptionQuery
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		customers:     map[string]*billing.Customer{},
		states:        map[string]*billing.CustomerState{},
		orderPages:    map[int]billing.OrderPage{},
		orderErrPages: map[int]bool{},
		subPageErrs:   map[int]bool{},
		revokeErr:     map[string]error{},
	}
}

func (f *fakeProvider) FindCustomerByEmail(_ context.Context, email string) (*billing.Customer, error) {
	time.Sleep(f.findDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.customers[email], nil
}

func (f *fakeProvider) CustomerState(_ context.Context, customerID string) (*billing.CustomerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.states[customerID], nil
}

func (f *fakeProvider) ListOrders(_ context.Context, q billing.OrderQuery) (*billing.OrderPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderPagesRead = append(f.orderPagesRead, q.Page)
	if f.orderErrPages[q.Page] {
		return nil, fmt.Errorf("orders page %d: %w", q.Page, errUpstream)
	}
	page := f.orderPages[q.Page]
	page.Pagination.MaxPage = f.orderMaxPage
	return &page, nil
}

func (f *fakeProvider) ListSubscriptions(_ context.Context, q billing.SubscriptionQuery) (*billing.SubscriptionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptionQry = append(f.subscriptionQry, q)
	if f.subPageErrs[q.Page] {
		return nil, fmt.Errorf("subscriptions page %d: %w", q.Page, errUpstream)
	}

	var matched []billing.Subscription
	for _, s := range f.subscriptions {
		if s.CustomerID != q.CustomerID {
			continue
		}
		if q.ActiveOnly && s.Status != billing.StatusActive {
			continue
		}
		matched = append(matched, s)
	}

	size := q.Limit
	if f.subPageSize > 0 {
		size = f.subPageSize
	}
	start := min((q.Page-1)*size, len(matched))
	end := min(start+size, len(matched))
	maxPage := f.subMaxPage
	if maxPage == 0 {
		maxPage = max(1, (len(matched)+size-1)/size)
	}
	return &billing.SubscriptionPage{
		Items:      matched[start:end],
		Pagination: billing.Pagination{TotalCount: len(matched), MaxPage: maxPage},
	}, nil
}

func (f *fakeProvider) GetSubscription(_ context.Context, id string) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subscriptions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, errUpstream
}

func (f *fakeProvider) RevokeSubscription(_ context.Context, id string) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.revokeErr[id]; err != nil {
		return nil, err
	}
	for i := range f.subscriptions {
		if f.subscriptions[i].ID == id {
			f.subscriptions[i].Status = billing.StatusCanceled
			f.revoked = append(f.revoked, id)
			s := f.subscriptions[i]
			return &s, nil
		}
	}
	return nil, errUpstream
}

func (f *fakeProvider) CancelSubscription(_ context.Context, id string) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.subscriptions {
		if f.subscriptions[i].ID == id {
			f.subscriptions[i].CancelAtPeriodEnd = true
			f.cancelled = append(f.cancelled, id)
			s := f.subscriptions[i]
			return &s, nil
		}
	}
	return nil, errUpstream
}

func (f *fakeProvider) UpdateSubscriptionProduct(_ context.Context, id, productID string) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.subscriptions {
		if f.subscriptions[i].ID == id {
			f.subscriptions[i].ProductID = productID
			s := f.subscriptions[i]
			return &s, nil
		}
	}
	return nil, errUpstream
}

func (f *fakeProvider) CreateCheckout(_ context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCheckout = &req
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return &billing.CheckoutSession{ID: "chk_1", URL: "https://pay.example.com/chk_1"}, nil
}

func (f *fakeProvider) CreatePortalSession(_ context.Context, customerID, returnURL string) (*billing.PortalSession, error) {
	return &billing.PortalSession{URL: "https://pay.example.com/portal/" + customerID + "?return=" + returnURL}, nil
}

func (f *fakeProvider) revokedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.revoked...)
}

var (
	monthly  = "month"
	proPlan  = &billing.Product{ID: "prod_pro", Name: "Pro", IsRecurring: true}
	lifetime = &billing.Product{ID: "prod_lifetime", Name: "Lifetime", IsRecurring: false}
)

func recurringSub(id, customerID string) billing.Subscription {
	return billing.Subscription{
		ID:                id,
		CustomerID:        customerID,
		ProductID:         proPlan.ID,
		Status:            billing.StatusActive,
		RecurringInterval: &monthly,
		Product:           proPlan,
	}
}

func paidLifetimeOrder(id string) billing.Order {
	return billing.Order{ID: id, Paid: true, Status: billing.OrderStatusPaid, Product: lifetime}
}
