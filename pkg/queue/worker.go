package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/paywall/pkg/logger"
)

// WorkerRepository is the storage side of a Worker.
type WorkerRepository interface {
	// ClaimTask locks the next runnable task in one of queues. It returns
	// ErrNoTaskToClaim when nothing is due.
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)

	// CompleteTask marks a processing task as done.
	CompleteTask(ctx context.Context, taskID uuid.UUID) error

	// RetryTask records a failed attempt and makes the task runnable again at retryAt.
	RetryTask(ctx context.Context, taskID uuid.UUID, errMsg string, retryAt time.Time) error

	// MoveToDLQ records the final failure and moves the task to the dead letter queue.
	MoveToDLQ(ctx context.Context, taskID uuid.UUID, errMsg string) error
}

// Purger deletes completed tasks last updated before a cutoff. Storages
// that implement it are swept by the worker when a retention is set.
type Purger interface {
	PurgeCompleted(ctx context.Context, before time.Time) (int64, error)
}

// Task outcomes reported to an Observer.
const (
	OutcomeCompleted = "completed"
	OutcomeRetried   = "retried"
	OutcomeDead      = "dead"
)

// Observer receives one call per handled task.
type Observer interface {
	TaskProcessed(name, outcome string, duration time.Duration)
}

// Worker claims tasks and runs their handlers with bounded concurrency.
type Worker struct {
	repo     WorkerRepository
	id       uuid.UUID
	opts     workerOptions
	mu       sync.RWMutex
	handlers map[string]Handler
	sem      chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates a worker; register handlers before calling Run.
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	o := workerOptions{
		queues:          []string{DefaultQueueName},
		pollInterval:    2 * time.Second,
		lockTimeout:     2 * time.Minute,
		shutdownTimeout: 30 * time.Second,
		concurrency:     4,
		backoff:         ExponentialBackoff{InitialInterval: 5 * time.Second, MaxInterval: 10 * time.Minute, Multiplier: 2, JitterFactor: 0.1},
		sweepInterval:   10 * time.Minute,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Worker{
		repo:     repo,
		id:       uuid.New(),
		opts:     o,
		handlers: make(map[string]Handler),
		sem:      make(chan struct{}, o.concurrency),
	}, nil
}

// ID identifies the worker in task locks.
func (w *Worker) ID() uuid.UUID { return w.id }

// RegisterHandlers adds handlers, replacing any with the same name.
func (w *Worker) RegisterHandlers(handlers ...Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			w.handlers[h.Name()] = h
		}
	}
}

// Run returns a function for errgroup that processes tasks until ctx is
// cancelled, then waits for in-flight tasks up to the shutdown timeout.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		w.mu.RLock()
		n := len(w.handlers)
		w.mu.RUnlock()
		if n == 0 {
			return ErrNoHandlers
		}

		w.opts.logger.InfoContext(ctx, "queue worker started",
			slog.String("worker_id", w.id.String()),
			slog.Any("queues", w.opts.queues),
			slog.Int("concurrency", cap(w.sem)))

		ticker := time.NewTicker(w.opts.pollInterval)
		defer ticker.Stop()

		var sweep <-chan time.Time
		purger, ok := w.repo.(Purger)
		if ok && w.opts.retention > 0 {
			t := time.NewTicker(w.opts.sweepInterval)
			defer t.Stop()
			sweep = t.C
		}

		for {
			w.drain(ctx)
			select {
			case <-ctx.Done():
				return w.shutdown()
			case <-sweep:
				w.purge(ctx, purger)
			case <-ticker.C:
			}
		}
	}
}

// drain claims tasks until none is due, the context ends, or a claim fails.
func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		task, err := w.repo.ClaimTask(ctx, w.id, w.opts.queues, w.opts.lockTimeout)
		if err != nil {
			<-w.sem
			if !errors.Is(err, ErrNoTaskToClaim) && ctx.Err() == nil {
				w.opts.logger.ErrorContext(ctx, "failed to claim task",
					slog.String("worker_id", w.id.String()),
					logger.Error(err))
			}
			return
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()
			// Shutdown must not abort a task that is already running.
			w.process(context.WithoutCancel(ctx), task)
		}()
	}
}

// purge removes completed tasks older than the retention.
func (w *Worker) purge(ctx context.Context, p Purger) {
	n, err := p.PurgeCompleted(ctx, time.Now().Add(-w.opts.retention))
	if err != nil {
		if ctx.Err() == nil {
			w.opts.logger.ErrorContext(ctx, "failed to purge completed tasks", logger.Error(err))
		}
		return
	}
	if n > 0 {
		w.opts.logger.DebugContext(ctx, "purged completed tasks", slog.Int64("count", n))
	}
}

func (w *Worker) shutdown() error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.opts.logger.Info("queue worker stopped", slog.String("worker_id", w.id.String()))
		return nil
	case <-time.After(w.opts.shutdownTimeout):
		return ErrShutdownTimeout
	}
}

func (w *Worker) process(ctx context.Context, task *Task) {
	start := time.Now()
	err := w.execute(ctx, task)
	duration := time.Since(start)

	log := w.opts.logger.With(
		slog.String("worker_id", w.id.String()),
		slog.String("task_id", task.ID.String()),
		slog.String("task_name", task.Name),
		slog.Int("attempt", task.Attempts+1),
		slog.Duration("duration", duration))

	outcome, repoErr := w.settle(ctx, task, err)
	switch {
	case repoErr != nil:
		log.ErrorContext(ctx, "failed to record task outcome", logger.Error(repoErr))
		return
	case outcome == OutcomeCompleted:
		log.InfoContext(ctx, "task completed")
	case outcome == OutcomeRetried:
		log.WarnContext(ctx, "task failed, will retry", logger.Error(err))
	default:
		log.ErrorContext(ctx, "task moved to dead letter queue", logger.Error(err))
	}

	if w.opts.observer != nil {
		w.opts.observer.TaskProcessed(task.Name, outcome, duration)
	}
}

// settle records the attempt result in storage.
func (w *Worker) settle(ctx context.Context, task *Task, err error) (string, error) {
	if err == nil {
		return OutcomeCompleted, w.repo.CompleteTask(ctx, task.ID)
	}

	attempt := task.Attempts + 1
	if errors.Is(err, ErrSkipRetry) || errors.Is(err, ErrHandlerNotFound) || attempt >= task.MaxAttempts {
		return OutcomeDead, w.repo.MoveToDLQ(ctx, task.ID, err.Error())
	}

	retryAt := time.Now().Add(w.opts.backoff.NextInterval(attempt))
	return OutcomeRetried, w.repo.RetryTask(ctx, task.ID, err.Error(), retryAt)
}

// execute runs the task's handler, turning a panic into an error.
func (w *Worker) execute(ctx context.Context, task *Task) (err error) {
	w.mu.RLock()
	h, ok := w.handlers[task.Name]
	w.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, task.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler %s: %v", task.Name, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, w.opts.lockTimeout)
	defer cancel()
	return h.Handle(ctx, task.Payload)
}
