package billing_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

func TestCanceller_CancelRecurring(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("revokes only active recurring plans", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		placeholder := billing.Subscription{ID: "sub_lt", CustomerID: "cus_1", Status: billing.StatusActive, Product: lifetime}
		other := recurringSub("sub_other", "cus_2")
		p.subscriptions = []billing.Subscription{
			recurringSub("sub_1", "cus_1"),
			placeholder,
			recurringSub("sub_2", "cus_1"),
			other,
		}

		report := billing.NewCanceller(p).CancelRecurring(ctx, "cus_1")

		assert.Equal(t, 2, report.Cancelled)
		assert.Empty(t, report.Errors)
		assert.ElementsMatch(t, []string{"sub_1", "sub_2"}, p.revokedIDs())
	})

	t.Run("collects every page before revoking", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.subPageSize = 2
		for i := range 5 {
			p.subscriptions = append(p.subscriptions, recurringSub(fmt.Sprintf("sub_%d", i), "cus_1"))
		}

		report := billing.NewCanceller(p).CancelRecurring(ctx, "cus_1")

		assert.Equal(t, 5, report.Cancelled)
		assert.Len(t, p.revokedIDs(), 5)
	})

	t.Run("failures are recorded and processing continues", func(t *testing.T) {
		t.Parallel()
		p := newFakeProvider()
		p.subPageSize = 1
		p.subMaxPage = 3
		p.subPageErrs[2] = true
		p.subscriptions = []billing.Subscription{
			recurringSub("sub_a", "cus_1"),
			recurringSub("sub_b", "cus_1"),
			recurringSub("sub_c", "cus_1"),
		}
		p.revokeErr["sub_a"] = errUpstream

		report := billing.NewCanceller(p).CancelRecurring(ctx, "cus_1")

		assert.Equal(t, 1, report.Cancelled)
		require.Len(t, report.Errors, 2)
		assert.Contains(t, report.Errors[0], "page 2")
		assert.Contains(t, report.Errors[1], "sub_a")
		assert.Equal(t, []string{"sub_c"}, p.revokedIDs())
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		t.Parallel()
		report := billing.NewCanceller(newFakeProvider()).CancelRecurring(ctx, "cus_1")
		assert.Zero(t, report.Cancelled)
		assert.Empty(t, report.Errors)
	})
}
