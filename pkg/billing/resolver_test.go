package billing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

var alice = &billing.User{ID: "user_1", Email: "alice@example.com", Name: "Alice"}

func newService(p *fakeProvider, store billing.MappingStore, opts ...billing.Option) *billing.Service {
	opts = append([]billing.Option{billing.WithSiteURL("https://app.example.com")}, opts...)
	return billing.NewService(p, store, opts...)
}

func mapped(customerID string) billing.MappingStore {
	return billing.NewMemoryMappings(billing.CustomerMapping{UserID: alice.ID, CustomerID: customerID})
}

func TestResolver_Anonymous(t *testing.T) {
	t.Parallel()

	svc := newService(newFakeProvider(), billing.NewMemoryMappings())

	t.Run("nil session", func(t *testing.T) {
		t.Parallel()
		ent, err := svc.Status(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, ent)
	})

	t.Run("session without user", func(t *testing.T) {
		t.Parallel()
		ent, err := svc.Status(context.Background(), billing.StaticSession(nil))
		require.NoError(t, err)
		assert.Nil(t, ent)
	})
}

func TestResolver_Signals(t *testing.T) {
	t.Parallel()

	t.Run("no customer means no signals", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		svc := newService(p, billing.NewMemoryMappings())

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)
		require.NotNil(t, ent)

		assert.False(t, ent.IsPremium)
		assert.False(t, ent.IsLifetime)
		assert.False(t, ent.HasSubscription)
		assert.Nil(t, ent.Subscription)
		assert.Equal(t, alice.ID, ent.ID)
		assert.Equal(t, 1, p.findCalls)
	})

	t.Run("active recurring subscription only", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.subscriptions = []billing.Subscription{recurringSub("sub_1", "cus_1")}
		p.states["cus_1"] = &billing.CustomerState{
			CustomerID:          "cus_1",
			ActiveSubscriptions: []billing.Subscription{recurringSub("sub_1", "cus_1")},
		}
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.True(t, ent.HasSubscription)
		assert.True(t, ent.IsPremium)
		assert.False(t, ent.IsLifetime)
		require.NotNil(t, ent.Subscription)
		assert.Equal(t, "sub_1", ent.Subscription.ID)
		assert.Empty(t, p.revokedIDs())
	})

	t.Run("paid one-time order without subscription", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.orderPages[1] = billing.OrderPage{Items: []billing.Order{paidLifetimeOrder("ord_1")}}
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.True(t, ent.IsLifetime)
		assert.True(t, ent.IsPremium)
		assert.False(t, ent.HasSubscription)
	})

	t.Run("benefit grant without subscription", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.states["cus_1"] = &billing.CustomerState{
			CustomerID:      "cus_1",
			GrantedBenefits: []billing.BenefitGrant{{ID: "grant_1", BenefitID: "ben_1"}},
		}
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.True(t, ent.IsLifetime)
		assert.True(t, ent.IsPremium)
		assert.False(t, ent.HasSubscription)
	})

	t.Run("benefit grant next to subscription is not lifetime", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.subscriptions = []billing.Subscription{recurringSub("sub_1", "cus_1")}
		p.states["cus_1"] = &billing.CustomerState{
			CustomerID:      "cus_1",
			GrantedBenefits: []billing.BenefitGrant{{ID: "grant_1"}},
		}
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.True(t, ent.IsPremium)
		assert.False(t, ent.IsLifetime)
		assert.Empty(t, p.revokedIDs())
	})

	t.Run("subscription to a one-time product is lifetime and kept", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.subscriptions = []billing.Subscription{{
			ID:         "sub_lt",
			CustomerID: "cus_1",
			ProductID:  lifetime.ID,
			Status:     billing.StatusActive,
			Product:    lifetime,
		}}
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.True(t, ent.IsLifetime)
		assert.True(t, ent.HasSubscription)
		assert.Empty(t, p.revokedIDs())
	})

	t.Run("customer state failure degrades", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.stateErr = errUpstream
		p.orderPages[1] = billing.OrderPage{Items: []billing.Order{paidLifetimeOrder("ord_1")}}
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.True(t, ent.IsLifetime)
		assert.False(t, ent.HasSubscription)
	})
}

func TestResolver_OrderPaging(t *testing.T) {
	t.Parallel()

	t.Run("error page is skipped", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.orderMaxPage = 2
		p.orderErrPages[1] = true
		p.orderPages[2] = billing.OrderPage{Items: []billing.Order{paidLifetimeOrder("ord_2")}}
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.True(t, ent.IsLifetime)
		assert.True(t, ent.IsPremium)
		assert.Equal(t, []int{1, 2}, p.orderPagesRead)
	})

	t.Run("pending, unpaid and recurring orders do not count", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.orderPages[1] = billing.OrderPage{Items: []billing.Order{
			{ID: "ord_1", Paid: true, Status: billing.OrderStatusPending, Product: lifetime},
			{ID: "ord_2", Paid: false, Status: billing.OrderStatusPaid, Product: lifetime},
			{ID: "ord_3", Paid: true, Status: billing.OrderStatusPaid, Product: proPlan},
			{ID: "ord_4", Paid: true, Status: billing.OrderStatusPaid},
		}}
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.False(t, ent.IsLifetime)
		assert.False(t, ent.IsPremium)
	})

	t.Run("stops at the page limit", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.orderMaxPage = 5
		p.orderPages[3] = billing.OrderPage{Items: []billing.Order{paidLifetimeOrder("ord_3")}}
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.False(t, ent.IsLifetime)
		assert.Equal(t, []int{1, 2}, p.orderPagesRead)
	})

	t.Run("stops on the first match", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.orderMaxPage = 3
		p.orderPages[1] = billing.OrderPage{Items: []billing.Order{paidLifetimeOrder("ord_1")}}
		svc := newService(p, mapped("cus_1"), billing.WithOrderPageLimit(3))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.True(t, ent.IsLifetime)
		assert.Equal(t, []int{1}, p.orderPagesRead)
	})
}

func TestResolver_LifetimeRevokesRecurring(t *testing.T) {
	t.Parallel()

	setup := func() *fakeProvider {
		p := newFakeProvider()
		p.subscriptions = []billing.Subscription{recurringSub("sub_1", "cus_1")}
		p.orderPages[1] = billing.OrderPage{Items: []billing.Order{paidLifetimeOrder("ord_1")}}
		return p
	}

	t.Run("revokes once and reports post-revocation state", func(t *testing.T) {
		t.Parallel()
		p := setup()
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.Equal(t, []string{"sub_1"}, p.revokedIDs())
		assert.Nil(t, ent.Subscription)
		assert.True(t, ent.IsLifetime)
		assert.True(t, ent.IsPremium)
		assert.False(t, ent.HasSubscription)
	})

	t.Run("repeated resolution does not revoke again", func(t *testing.T) {
		t.Parallel()
		p := setup()
		svc := newService(p, mapped("cus_1"))
		sess := billing.StaticSession(alice)

		first, err := svc.Status(context.Background(), sess)
		require.NoError(t, err)
		second, err := svc.Status(context.Background(), sess)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, p.revokedIDs(), 1)
	})

	t.Run("revocation failure keeps the stale subscription", func(t *testing.T) {
		t.Parallel()
		p := setup()
		p.revokeErr["sub_1"] = errUpstream
		svc := newService(p, mapped("cus_1"))

		ent, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		require.NotNil(t, ent.Subscription)
		assert.Equal(t, billing.StatusActive, ent.Subscription.Status)
		assert.True(t, ent.HasSubscription)
		assert.True(t, ent.IsLifetime)
	})

	t.Run("first resolution of an unmapped customer revokes", func(t *testing.T) {
		t.Parallel()
		p := setup()
		p.customers[alice.Email] = &billing.Customer{ID: "cus_1", Email: alice.Email}
		p.findDelay = 20 * time.Millisecond
		svc := newService(p, billing.NewMemoryMappings())
		sess := billing.StaticSession(alice)

		first, err := svc.Status(context.Background(), sess)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub_1"}, p.revokedIDs())
		assert.Nil(t, first.Subscription)
		assert.True(t, first.IsLifetime)

		second, err := svc.Status(context.Background(), sess)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Len(t, p.revokedIDs(), 1)
	})

	t.Run("inactive subscriptions are left alone", func(t *testing.T) {
		t.Parallel()
		p := setup()
		p.subscriptions[0].Status = billing.StatusPastDue
		svc := newService(p, mapped("cus_1"))

		_, err := svc.Status(context.Background(), billing.StaticSession(alice))
		require.NoError(t, err)

		assert.Empty(t, p.revokedIDs())
	})
}

func TestResolver_Idempotent(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	p.subscriptions = []billing.Subscription{recurringSub("sub_1", "cus_1")}
	p.states["cus_1"] = &billing.CustomerState{CustomerID: "cus_1"}
	svc := newService(p, mapped("cus_1"))
	sess := billing.StaticSession(alice)

	first, err := svc.Status(context.Background(), sess)
	require.NoError(t, err)
	second, err := svc.Status(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, p.revokedIDs())
}

func TestResolver_Backfill(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	p.customers[alice.Email] = &billing.Customer{ID: "cus_9", Email: alice.Email}
	store := billing.NewMemoryMappings()
	svc := newService(p, store)
	sess := billing.StaticSession(alice)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Status(context.Background(), sess)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := svc.Status(context.Background(), sess)
	require.NoError(t, err)

	m, err := store.GetByUserID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_9", m.CustomerID)
	assert.Equal(t, map[string]any{}, m.Metadata)
	assert.LessOrEqual(t, p.findCalls, 2)
}
