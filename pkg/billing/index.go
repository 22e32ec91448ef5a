package billing

import (
	"context"
	"errors"
)

// SubscriptionIndex returns the subscription currently associated with a user.
// A non-empty customerID is the user's already resolved provider customer;
// an empty one makes the index find the customer itself.
type SubscriptionIndex interface {
	CurrentSubscription(ctx context.Context, userID, customerID string) (*Subscription, error)
}

type providerIndex struct {
	store    MappingStore
	provider Provider
}

// NewProviderSubscriptionIndex returns an index that asks the provider for
// the customer's live subscriptions. Without a customer id it reads the
// user's stored mapping; users without a mapping have no subscription.
func NewProviderSubscriptionIndex(store MappingStore, provider Provider) SubscriptionIndex {
	return &providerIndex{store: store, provider: provider}
}

func (i *providerIndex) CurrentSubscription(ctx context.Context, userID, customerID string) (*Subscription, error) {
	if customerID == "" {
		mapping, err := i.store.GetByUserID(ctx, userID)
		if errors.Is(err, ErrMappingNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, errors.Join(ErrMappingStore, err)
		}
		customerID = mapping.CustomerID
	}

	page, err := i.provider.ListSubscriptions(ctx, SubscriptionQuery{
		CustomerID: customerID,
		ActiveOnly: true,
		Page:       1,
		Limit:      indexSubscriptionsLimit,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderCall, err)
	}
	return pickCurrent(page.Items), nil
}

// pickCurrent prefers an active subscription and falls back to the first one.
func pickCurrent(subs []Subscription) *Subscription {
	if len(subs) == 0 {
		return nil
	}
	for i := range subs {
		if subs[i].Status == StatusActive {
			s := subs[i]
			return &s
		}
	}
	s := subs[0]
	return &s
}
