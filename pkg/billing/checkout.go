package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrymomot/paywall/pkg/logger"
)

// CheckoutParams are the caller-supplied inputs of a checkout.
type CheckoutParams struct {
	ProductID  string            `json:"productId"`
	SuccessURL string            `json:"successUrl,omitempty"`
	Amount     *int64            `json:"amount,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Checkout issues hosted checkout sessions for authenticated users.
type Checkout struct {
	provider  Provider
	directory *Directory
	opts      options
}

func NewCheckout(provider Provider, directory *Directory, opts ...Option) *Checkout {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if directory == nil {
		panic("billing: Directory is required")
	}
	return &Checkout{provider: provider, directory: directory, opts: applyOptions(opts)}
}

// Create returns a checkout session for the session's user. The user's
// email and name are prefilled and the user id is attached as the external
// customer id, so the resulting customer can always be tied back to the
// account. A previously purchasing customer found by email is reused.
func (c *Checkout) Create(ctx context.Context, s Session, p CheckoutParams) (*CheckoutSession, error) {
	user, err := currentUser(ctx, s)
	if err != nil {
		return nil, err
	}
	if p.ProductID == "" {
		return nil, ErrMissingProduct
	}

	req := CheckoutRequest{
		ProductID:          p.ProductID,
		ExternalCustomerID: user.ID,
		CustomerEmail:      user.Email,
		CustomerName:       user.Name,
		SuccessURL:         p.SuccessURL,
		Amount:             p.Amount,
		Metadata:           p.Metadata,
	}
	if req.SuccessURL == "" {
		req.SuccessURL = c.defaultSuccessURL()
	}

	// Backfill is best effort; checkout proceeds without a known customer.
	if m, err := c.directory.Lookup(ctx, user.ID, user.Email); err != nil {
		c.opts.logger.WarnContext(ctx, "customer lookup before checkout failed",
			logger.UserID(user.ID),
			logger.Error(err),
		)
	} else if m != nil {
		req.CustomerID = m.CustomerID
	}

	res := call(ctx, c.opts.timeout, func(ctx context.Context) (*CheckoutSession, error) {
		return c.provider.CreateCheckout(ctx, req)
	})
	if !res.ok() {
		c.opts.metrics.ProviderCallFailed("create_checkout")
		c.opts.logger.ErrorContext(ctx, "failed to create checkout session",
			logger.UserID(user.ID),
			logger.ProductID(p.ProductID),
			logger.Error(res.err),
		)
		return nil, errors.Join(ErrCheckoutFailed, res.err)
	}
	if res.val == nil || res.val.URL == "" {
		return nil, ErrCheckoutFailed
	}
	return res.val, nil
}

func (c *Checkout) defaultSuccessURL() string {
	return strings.TrimRight(c.opts.siteURL, "/") + defaultSuccessPath
}
