package billing

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/paywall/pkg/logger"
)

const (
	DefaultProviderTimeout  = 5 * time.Second
	DefaultOrderPageLimit   = 2
	OrderPageSize           = 25
	SubscriptionPageSize    = 100
	defaultSuccessPath      = "/success?checkout_id={CHECKOUT_ID}"
	indexSubscriptionsLimit = 10
)

// Option configures the billing components.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	metrics        Metrics
	timeout        time.Duration
	orderPageLimit int
	siteURL        string
}

func defaultOptions() options {
	return options{
		logger:         logger.Discard(),
		metrics:        noopMetrics{},
		timeout:        DefaultProviderTimeout,
		orderPageLimit: DefaultOrderPageLimit,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithProviderTimeout bounds every individual provider call. Expiry is
// treated like any other failure of that call.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithOrderPageLimit sets how many pages of one-time orders are scanned.
func WithOrderPageLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.orderPageLimit = n
		}
	}
}

// WithSiteURL sets the base URL used for default checkout redirects.
func WithSiteURL(u string) Option {
	return func(o *options) { o.siteURL = u }
}

// WithConfig applies values loaded from the environment.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		WithSiteURL(cfg.SiteURL)(o)
		WithProviderTimeout(cfg.ProviderTimeout)(o)
		WithOrderPageLimit(cfg.OrderPageLimit)(o)
	}
}
