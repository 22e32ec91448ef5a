package queue

import "time"

// Config holds the worker and retry settings.
type Config struct {
	PollInterval    time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"2s"`
	LockTimeout     time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	Concurrency     int           `env:"QUEUE_CONCURRENCY" envDefault:"4"`
	MaxAttempts     int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"5"`
	RetryInitial    time.Duration `env:"QUEUE_RETRY_INITIAL" envDefault:"5s"`
	RetryMax        time.Duration `env:"QUEUE_RETRY_MAX" envDefault:"10m"`
	Retention       time.Duration `env:"QUEUE_COMPLETED_RETENTION" envDefault:"24h"`
	SweepInterval   time.Duration `env:"QUEUE_SWEEP_INTERVAL" envDefault:"10m"`
}

// WorkerOptions translates the config into worker options.
func (c Config) WorkerOptions() []WorkerOption {
	return []WorkerOption{
		WithPollInterval(c.PollInterval),
		WithLockTimeout(c.LockTimeout),
		WithShutdownTimeout(c.ShutdownTimeout),
		WithConcurrency(c.Concurrency),
		WithRetention(c.Retention, c.SweepInterval),
		WithBackoff(ExponentialBackoff{
			InitialInterval: c.RetryInitial,
			MaxInterval:     c.RetryMax,
			Multiplier:      2,
			JitterFactor:    0.1,
		}),
	}
}
