package billing

import "time"

// Config holds the billing settings read from the environment.
type Config struct {
	SiteURL         string        `env:"SITE_URL,required"`
	ProviderTimeout time.Duration `env:"BILLING_PROVIDER_TIMEOUT" envDefault:"5s"`
	OrderPageLimit  int           `env:"BILLING_ORDER_PAGE_LIMIT" envDefault:"2"`
}
