package billing

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/paywall/pkg/logger"
)

// CancelReport summarises a bulk cancellation.
type CancelReport struct {
	Cancelled int      `json:"cancelled"`
	Errors    []string `json:"errors,omitempty"`
}

// Canceller revokes every recurring subscription of a customer.
type Canceller struct {
	provider Provider
	opts     options
}

func NewCanceller(provider Provider, opts ...Option) *Canceller {
	if provider == nil {
		panic("billing: Provider is required")
	}
	return &Canceller{provider: provider, opts: applyOptions(opts)}
}

// CancelRecurring immediately revokes all active recurring subscriptions of
// the customer. Candidates are collected from every page before the first
// revocation. Failures are recorded in the report; CancelRecurring never
// fails as a whole.
func (c *Canceller) CancelRecurring(ctx context.Context, customerID string) CancelReport {
	log := c.opts.logger.With(logger.CustomerID(customerID), logger.Operation("cancel_recurring"))

	var report CancelReport
	candidates := c.collect(ctx, customerID, &report)

	for _, sub := range candidates {
		res := call(ctx, c.opts.timeout, func(ctx context.Context) (*Subscription, error) {
			return c.provider.RevokeSubscription(ctx, sub.ID)
		})
		if !res.ok() {
			c.opts.metrics.ProviderCallFailed("revoke_subscription")
			log.ErrorContext(ctx, "failed to revoke subscription",
				logger.SubscriptionID(sub.ID),
				logger.Error(res.err),
			)
			report.Errors = append(report.Errors, fmt.Sprintf("subscription %s: %v", sub.ID, res.err))
			continue
		}
		c.opts.metrics.SubscriptionRevoked(RevokeReasonBulk)
		report.Cancelled++
	}

	log.InfoContext(ctx, "recurring subscriptions cancelled",
		"cancelled", report.Cancelled,
		"failed", len(report.Errors),
	)
	return report
}

func (c *Canceller) collect(ctx context.Context, customerID string, report *CancelReport) []Subscription {
	var (
		out     []Subscription
		maxPage int
	)
	for page := 1; ; page++ {
		res := call(ctx, c.opts.timeout, func(ctx context.Context) (*SubscriptionPage, error) {
			return c.provider.ListSubscriptions(ctx, SubscriptionQuery{
				CustomerID: customerID,
				ActiveOnly: true,
				Page:       page,
				Limit:      SubscriptionPageSize,
			})
		})
		if !res.ok() {
			c.opts.metrics.ProviderCallFailed("list_subscriptions")
			report.Errors = append(report.Errors, fmt.Sprintf("page %d: %v", page, res.err))
			if page < maxPage && ctx.Err() == nil {
				continue
			}
			return out
		}
		if res.val == nil {
			return out
		}
		for _, sub := range res.val.Items {
			if sub.Status == StatusActive && sub.IsRecurringPlan() {
				out = append(out, sub)
			}
		}
		maxPage = max(maxPage, res.val.Pagination.MaxPage)
		if lastPage(page, len(res.val.Items), SubscriptionPageSize, res.val.Pagination) {
			return out
		}
	}
}
