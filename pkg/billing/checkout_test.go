package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

func TestCheckout_Create(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("requires an authenticated user", func(t *testing.T) {
		t.Parallel()
		svc := newService(newFakeProvider(), billing.NewMemoryMappings())

		_, err := svc.Checkout(ctx, billing.StaticSession(nil), billing.CheckoutParams{ProductID: "prod_pro"})
		assert.ErrorIs(t, err, billing.ErrUnauthenticated)
	})

	t.Run("requires a product", func(t *testing.T) {
		t.Parallel()
		svc := newService(newFakeProvider(), billing.NewMemoryMappings())

		_, err := svc.Checkout(ctx, billing.StaticSession(alice), billing.CheckoutParams{})
		assert.ErrorIs(t, err, billing.ErrMissingProduct)
	})

	t.Run("prefills the user and default success url", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.customers[alice.Email] = &billing.Customer{ID: "cus_7"}
		svc := newService(p, billing.NewMemoryMappings())
		amount := int64(4900)

		sess, err := svc.Checkout(ctx, billing.StaticSession(alice), billing.CheckoutParams{
			ProductID: "prod_pro",
			Amount:    &amount,
			Metadata:  map[string]string{"ref": "pricing"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/chk_1", sess.URL)

		req := p.lastCheckout
		require.NotNil(t, req)
		assert.Equal(t, "prod_pro", req.ProductID)
		assert.Equal(t, "cus_7", req.CustomerID)
		assert.Equal(t, alice.ID, req.ExternalCustomerID)
		assert.Equal(t, alice.Email, req.CustomerEmail)
		assert.Equal(t, alice.Name, req.CustomerName)
		assert.Equal(t, "https://app.example.com/success?checkout_id={CHECKOUT_ID}", req.SuccessURL)
		assert.Equal(t, &amount, req.Amount)
		assert.Equal(t, "pricing", req.Metadata["ref"])
	})

	t.Run("backfill failure does not block checkout", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.findErr = errUpstream
		svc := newService(p, billing.NewMemoryMappings())

		_, err := svc.Checkout(ctx, billing.StaticSession(alice), billing.CheckoutParams{
			ProductID:  "prod_pro",
			SuccessURL: "https://app.example.com/thanks",
		})
		require.NoError(t, err)
		assert.Empty(t, p.lastCheckout.CustomerID)
		assert.Equal(t, "https://app.example.com/thanks", p.lastCheckout.SuccessURL)
	})

	t.Run("provider failure is wrapped", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.checkoutErr = errUpstream
		svc := newService(p, billing.NewMemoryMappings())

		_, err := svc.Checkout(ctx, billing.StaticSession(alice), billing.CheckoutParams{ProductID: "prod_pro"})
		assert.ErrorIs(t, err, billing.ErrCheckoutFailed)
		assert.ErrorIs(t, err, errUpstream)
	})
}
