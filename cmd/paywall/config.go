package main

import "time"

const (
	providerPolar  = "polar"
	providerPaddle = "paddle"

	storagePostgres = "postgres"
	storageMemory   = "memory"

	dedupRedis  = "redis"
	dedupMemory = "memory"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"Paywall"`
	Provider string `env:"BILLING_PROVIDER" envDefault:"polar"`

	Storage string `env:"STORAGE_BACKEND" envDefault:"postgres"`

	Dedup         string        `env:"WEBHOOK_DEDUP" envDefault:"memory"`
	DedupTTL      time.Duration `env:"WEBHOOK_DEDUP_TTL" envDefault:"72h"`
	DedupCapacity int           `env:"WEBHOOK_DEDUP_CAPACITY" envDefault:"10000"`

	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"2s"`
	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"paywall"`
}
