package queue

import (
	"log/slog"
	"time"
)

// WorkerOption configures a Worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	queues          []string
	pollInterval    time.Duration
	lockTimeout     time.Duration
	shutdownTimeout time.Duration
	concurrency     int
	backoff         Backoff
	retention       time.Duration
	sweepInterval   time.Duration
	observer        Observer
	logger          *slog.Logger
}

// WithQueues sets which queues the worker claims from.
func WithQueues(queues ...string) WorkerOption {
	return func(o *workerOptions) {
		if len(queues) > 0 {
			o.queues = queues
		}
	}
}

// WithPollInterval sets how often an idle worker looks for new tasks.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLockTimeout sets how long a claimed task stays locked. It also bounds
// the handler's run time.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithShutdownTimeout bounds how long Run waits for in-flight tasks.
func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithConcurrency sets the maximum number of tasks handled at once.
func WithConcurrency(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithBackoff sets the retry delay strategy.
func WithBackoff(b Backoff) WorkerOption {
	return func(o *workerOptions) {
		if b != nil {
			o.backoff = b
		}
	}
}

// WithRetention keeps completed tasks for d, then deletes them on a sweep
// every interval. Zero d keeps completed tasks forever.
func WithRetention(d, interval time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.retention = d
		}
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// WithObserver reports task outcomes, e.g. to metrics.
func WithObserver(obs Observer) WorkerOption {
	return func(o *workerOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if log != nil {
			o.logger = log
		}
	}
}
