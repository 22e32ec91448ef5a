package polar

import "time"

// Config holds Polar settings read from the environment.
type Config struct {
	AccessToken    string        `env:"POLAR_ACCESS_TOKEN"`
	Server         string        `env:"POLAR_SERVER" envDefault:"production"`
	WebhookSecret  string        `env:"POLAR_WEBHOOK_SECRET"`
	OrganizationID string        `env:"POLAR_ORGANIZATION_ID"`
	HTTPTimeout    time.Duration `env:"POLAR_HTTP_TIMEOUT" envDefault:"10s"`

	BreakerThreshold int           `env:"POLAR_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"POLAR_BREAKER_COOLDOWN" envDefault:"30s"`
}

const (
	ServerProduction = "production"
	ServerSandbox    = "sandbox"

	productionURL = "https://api.polar.sh"
	sandboxURL    = "https://sandbox-api.polar.sh"
)
