package billing

import (
	"context"
	"errors"

	"github.com/dmitrymomot/paywall/pkg/logger"
)

// Service bundles the billing components around one provider and mapping
// store. It is the surface used by the HTTP layer and background jobs.
type Service struct {
	provider  Provider
	directory *Directory
	index     SubscriptionIndex
	resolver  *Resolver
	checkout  *Checkout
	canceller *Canceller
	opts      options
}

func NewService(provider Provider, store MappingStore, opts ...Option) *Service {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if store == nil {
		panic("billing: MappingStore is required")
	}
	directory := NewDirectory(store, provider, opts...)
	index := NewProviderSubscriptionIndex(store, provider)
	return &Service{
		provider:  provider,
		directory: directory,
		index:     index,
		resolver:  NewResolver(provider, directory, index, opts...),
		checkout:  NewCheckout(provider, directory, opts...),
		canceller: NewCanceller(provider, opts...),
		opts:      applyOptions(opts),
	}
}

func (s *Service) Directory() *Directory    { return s.directory }
func (s *Service) Index() SubscriptionIndex { return s.index }

// Status resolves the entitlement of the session's user; nil when anonymous.
func (s *Service) Status(ctx context.Context, sess Session) (*Entitlement, error) {
	return s.resolver.Resolve(ctx, sess)
}

// Checkout creates a hosted checkout session.
func (s *Service) Checkout(ctx context.Context, sess Session, p CheckoutParams) (*CheckoutSession, error) {
	return s.checkout.Create(ctx, sess, p)
}

// CancelRecurring revokes every recurring subscription of the customer.
func (s *Service) CancelRecurring(ctx context.Context, customerID string) CancelReport {
	return s.canceller.CancelRecurring(ctx, customerID)
}

// PortalURL returns a customer portal link for the session's user. Users
// that never purchased have no portal.
func (s *Service) PortalURL(ctx context.Context, sess Session, returnURL string) (string, error) {
	user, err := currentUser(ctx, sess)
	if err != nil {
		return "", err
	}
	m, err := s.directory.Lookup(ctx, user.ID, user.Email)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", ErrNoCustomer
	}
	if returnURL == "" {
		returnURL = s.opts.siteURL
	}

	res := call(ctx, s.opts.timeout, func(ctx context.Context) (*PortalSession, error) {
		return s.provider.CreatePortalSession(ctx, m.CustomerID, returnURL)
	})
	if !res.ok() || res.val == nil {
		s.opts.metrics.ProviderCallFailed("create_portal_session")
		s.opts.logger.ErrorContext(ctx, "failed to create customer portal session",
			logger.UserID(user.ID),
			logger.CustomerID(m.CustomerID),
			logger.Error(res.err),
		)
		return "", errors.Join(ErrPortalFailed, res.err)
	}
	return res.val.URL, nil
}

// CancelSubscription schedules the user's current subscription to end at
// the close of its billing period.
func (s *Service) CancelSubscription(ctx context.Context, sess Session) (*Subscription, error) {
	return s.updateCurrent(ctx, sess, "cancel_subscription", func(ctx context.Context, sub *Subscription) (*Subscription, error) {
		return s.provider.CancelSubscription(ctx, sub.ID)
	})
}

// ChangeSubscription moves the user's current subscription to productID.
func (s *Service) ChangeSubscription(ctx context.Context, sess Session, productID string) (*Subscription, error) {
	if productID == "" {
		return nil, ErrMissingProduct
	}
	return s.updateCurrent(ctx, sess, "change_subscription", func(ctx context.Context, sub *Subscription) (*Subscription, error) {
		return s.provider.UpdateSubscriptionProduct(ctx, sub.ID, productID)
	})
}

func (s *Service) updateCurrent(
	ctx context.Context,
	sess Session,
	op string,
	fn func(context.Context, *Subscription) (*Subscription, error),
) (*Subscription, error) {
	user, err := currentUser(ctx, sess)
	if err != nil {
		return nil, err
	}

	current := call(ctx, s.opts.timeout, func(ctx context.Context) (*Subscription, error) {
		return s.index.CurrentSubscription(ctx, user.ID, "")
	})
	if !current.ok() {
		return nil, errors.Join(ErrSubscriptionUpdate, current.err)
	}
	if current.val == nil {
		return nil, ErrNoSubscription
	}

	res := call(ctx, s.opts.timeout, func(ctx context.Context) (*Subscription, error) {
		return fn(ctx, current.val)
	})
	if !res.ok() {
		s.opts.metrics.ProviderCallFailed(op)
		s.opts.logger.ErrorContext(ctx, "failed to update subscription",
			logger.Operation(op),
			logger.UserID(user.ID),
			logger.SubscriptionID(current.val.ID),
			logger.Error(res.err),
		)
		return nil, errors.Join(ErrSubscriptionUpdate, res.err)
	}
	return res.val, nil
}
