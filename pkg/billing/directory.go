package billing

import (
	"context"
	"errors"
	"maps"

	"github.com/dmitrymomot/paywall/pkg/logger"
)

// Directory resolves platform users to payments-provider customers and
// backfills the mapping for customers that purchased before their account
// was linked.
type Directory struct {
	store    MappingStore
	provider Provider
	opts     options
}

func NewDirectory(store MappingStore, provider Provider, opts ...Option) *Directory {
	if store == nil {
		panic("billing: MappingStore is required")
	}
	if provider == nil {
		panic("billing: Provider is required")
	}
	return &Directory{store: store, provider: provider, opts: applyOptions(opts)}
}

// Lookup returns the user's customer mapping, or nil when none exists and
// none can be backfilled. A stored mapping is returned without contacting
// the provider. Otherwise the provider is searched by email (first match
// only) and a found customer is persisted for the user.
//
// Provider failures are logged and reported as "no customer". Only a failure
// to read the mapping store is returned as an error.
func (d *Directory) Lookup(ctx context.Context, userID, email string) (*CustomerMapping, error) {
	stored := call(ctx, d.opts.timeout, func(ctx context.Context) (*CustomerMapping, error) {
		return d.store.GetByUserID(ctx, userID)
	})
	switch {
	case stored.ok():
		return stored.val, nil
	case !errors.Is(stored.err, ErrMappingNotFound):
		return nil, errors.Join(ErrMappingStore, stored.err)
	}

	if email == "" {
		return nil, nil
	}

	found := call(ctx, d.opts.timeout, func(ctx context.Context) (*Customer, error) {
		return d.provider.FindCustomerByEmail(ctx, email)
	})
	if !found.ok() {
		d.opts.metrics.ProviderCallFailed("find_customer")
		d.opts.logger.WarnContext(ctx, "customer backfill lookup failed",
			logger.UserID(userID),
			logger.Error(found.err),
		)
		return nil, nil
	}
	if found.val == nil {
		return nil, nil
	}

	mapping := CustomerMapping{
		UserID:     userID,
		CustomerID: found.val.ID,
		Metadata:   maps.Clone(found.val.Metadata),
	}
	if mapping.Metadata == nil {
		mapping.Metadata = map[string]any{}
	}

	saved := call(ctx, d.opts.timeout, func(ctx context.Context) (*CustomerMapping, error) {
		return d.store.Insert(ctx, mapping)
	})
	if !saved.ok() {
		// The provider is the source of truth; the next lookup re-finds the customer.
		d.opts.logger.ErrorContext(ctx, "failed to persist customer mapping",
			logger.UserID(userID),
			logger.CustomerID(mapping.CustomerID),
			logger.Error(saved.err),
		)
		return &mapping, nil
	}

	d.opts.logger.InfoContext(ctx, "customer mapping backfilled",
		logger.UserID(userID),
		logger.CustomerID(saved.val.CustomerID),
	)
	return saved.val, nil
}
