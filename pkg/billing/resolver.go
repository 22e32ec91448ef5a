package billing

import (
	"context"
	"errors"
	"slices"

	"github.com/dmitrymomot/paywall/pkg/async"
	"github.com/dmitrymomot/paywall/pkg/logger"
)

// Resolver computes a user's entitlement from live provider state: the
// current subscription, benefit grants and paid one-time orders.
type Resolver struct {
	provider  Provider
	directory *Directory
	index     SubscriptionIndex
	opts      options
}

func NewResolver(provider Provider, directory *Directory, index SubscriptionIndex, opts ...Option) *Resolver {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if directory == nil {
		panic("billing: Directory is required")
	}
	if index == nil {
		panic("billing: SubscriptionIndex is required")
	}
	return &Resolver{provider: provider, directory: directory, index: index, opts: applyOptions(opts)}
}

// signals are the facts an entitlement is derived from.
type signals struct {
	subscription        *Subscription
	state               *CustomerState
	hasPaidOneTimeOrder bool
}

type verdict struct {
	hasSubscription bool
	active          bool
	lifetime        bool
}

func (s signals) evaluate() verdict {
	hasBenefitGrant := s.state.hasBenefitGrant()
	hasSubscription := s.subscription != nil || s.state.hasActiveSubscription()
	return verdict{
		hasSubscription: hasSubscription,
		active:          hasSubscription || hasBenefitGrant || s.hasPaidOneTimeOrder,
		lifetime: (s.subscription != nil && isOneTime(s.subscription.Product)) ||
			(!hasSubscription && hasBenefitGrant) ||
			s.hasPaidOneTimeOrder,
	}
}

// supersededByLifetime reports whether sub is a real recurring plan that
// lifetime access makes redundant.
func supersededByLifetime(sub *Subscription) bool {
	return sub != nil && !isOneTime(sub.Product) && sub.Status == StatusActive
}

// Resolve returns the entitlement of the session's user, or nil for an
// anonymous session. Failures of individual signal sources degrade that
// signal to its empty value instead of failing the call.
//
// When the user holds lifetime access and still has an active recurring
// subscription, that subscription is revoked immediately and the result
// reflects the post-revocation state.
func (r *Resolver) Resolve(ctx context.Context, s Session) (*Entitlement, error) {
	user, err := currentUser(ctx, s)
	if errors.Is(err, ErrUnauthenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	log := r.opts.logger.With(logger.UserID(user.ID))

	// The subscription, customer state and orders all depend on the customer
	// id, so the lookup (and its backfill) completes first.
	var customerID string
	if m, err := r.directory.Lookup(ctx, user.ID, user.Email); err != nil {
		log.WarnContext(ctx, "customer lookup failed", logger.Error(err))
	} else if m != nil {
		customerID = m.CustomerID
	}

	subF := async.Async(ctx, customerID, within(r.opts.timeout, func(ctx context.Context, id string) (*Subscription, error) {
		return r.index.CurrentSubscription(ctx, user.ID, id)
	}))
	stateF := async.Resolved[*CustomerState](nil, nil)
	ordersF := async.Resolved(false, nil)
	if customerID != "" {
		stateF = async.Async(ctx, customerID, within(r.opts.timeout, r.provider.CustomerState))
		ordersF = async.Async(ctx, customerID, func(ctx context.Context, id string) (bool, error) {
			return r.hasPaidLifetimeOrder(ctx, id), nil
		})
	}

	var sig signals

	if sub, err := subF.Await(); err == nil {
		sig.subscription = sub
	} else {
		r.opts.metrics.ProviderCallFailed("current_subscription")
		log.WarnContext(ctx, "current subscription unavailable", logger.Error(err))
	}

	if state, err := stateF.Await(); err == nil {
		sig.state = state
	} else {
		r.opts.metrics.ProviderCallFailed("customer_state")
		log.WarnContext(ctx, "customer state unavailable",
			logger.CustomerID(customerID),
			logger.Error(err),
		)
	}

	sig.hasPaidOneTimeOrder, _ = ordersF.Await()

	first := sig.evaluate()

	if first.lifetime && supersededByLifetime(sig.subscription) {
		sig.subscription = r.revokeSuperseded(ctx, user.ID, sig.subscription)
	}

	final := sig.evaluate()

	ent := &Entitlement{
		User:            *user,
		Subscription:    sig.subscription,
		IsPremium:       final.active,
		IsLifetime:      final.lifetime,
		HasSubscription: final.hasSubscription,
	}
	r.opts.metrics.EntitlementResolved(ent)
	return ent, nil
}

// revokeSuperseded revokes sub and returns the subscription as it is after
// the revocation. On failure the stale subscription is returned unchanged.
func (r *Resolver) revokeSuperseded(ctx context.Context, userID string, sub *Subscription) *Subscription {
	log := r.opts.logger.With(logger.UserID(userID), logger.SubscriptionID(sub.ID))

	revoked := call(ctx, r.opts.timeout, func(ctx context.Context) (*Subscription, error) {
		return r.provider.RevokeSubscription(ctx, sub.ID)
	})
	if !revoked.ok() {
		r.opts.metrics.ProviderCallFailed("revoke_subscription")
		log.ErrorContext(ctx, "failed to revoke subscription superseded by lifetime access", logger.Error(revoked.err))
		return sub
	}
	r.opts.metrics.SubscriptionRevoked(RevokeReasonLifetime)
	log.InfoContext(ctx, "revoked recurring subscription superseded by lifetime access")

	current := call(ctx, r.opts.timeout, func(ctx context.Context) (*Subscription, error) {
		return r.index.CurrentSubscription(ctx, userID, sub.CustomerID)
	})
	if !current.ok() {
		log.WarnContext(ctx, "failed to re-fetch subscription after revocation", logger.Error(current.err))
		return revoked.val
	}
	return current.val
}

// hasPaidLifetimeOrder scans the customer's one-time orders page by page and
// stops at the first page containing a paid lifetime order. Pages that fail
// to load are logged and skipped.
func (r *Resolver) hasPaidLifetimeOrder(ctx context.Context, customerID string) bool {
	for page := 1; page <= r.opts.orderPageLimit; page++ {
		res := call(ctx, r.opts.timeout, func(ctx context.Context) (*OrderPage, error) {
			return r.provider.ListOrders(ctx, OrderQuery{
				CustomerID:  customerID,
				BillingType: BillingTypeOneTime,
				Page:        page,
				Limit:       OrderPageSize,
			})
		})
		if !res.ok() {
			r.opts.metrics.ProviderCallFailed("list_orders")
			r.opts.logger.WarnContext(ctx, "failed to load orders page",
				logger.CustomerID(customerID),
				logger.Page(page),
				logger.Error(res.err),
			)
			continue
		}
		if res.val == nil {
			break
		}
		if slices.ContainsFunc(res.val.Items, Order.IsPaidLifetime) {
			return true
		}
		if lastPage(page, len(res.val.Items), OrderPageSize, res.val.Pagination) {
			break
		}
	}
	return false
}

// lastPage reports whether page is the final page of a listing.
func lastPage(page, items, size int, p Pagination) bool {
	if p.MaxPage > 0 {
		return page >= p.MaxPage
	}
	return items < size
}
