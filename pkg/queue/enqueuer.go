package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds how many times a task is handed to its handler.
const DefaultMaxAttempts = 5

// EnqueuerRepository persists new tasks.
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
}

// Enqueuer serialises payloads into tasks.
type Enqueuer struct {
	repo        EnqueuerRepository
	queue       string
	maxAttempts int
	now         func() time.Time
}

// EnqueuerOption configures an Enqueuer.
type EnqueuerOption func(*Enqueuer)

// WithDefaultQueue sets the queue used when Enqueue is not given one.
func WithDefaultQueue(name string) EnqueuerOption {
	return func(e *Enqueuer) {
		if name != "" {
			e.queue = name
		}
	}
}

// WithDefaultMaxAttempts sets the attempt budget of new tasks.
func WithDefaultMaxAttempts(n int) EnqueuerOption {
	return func(e *Enqueuer) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// NewEnqueuer creates an Enqueuer backed by repo.
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	e := &Enqueuer{
		repo:        repo,
		queue:       DefaultQueueName,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type enqueueOptions struct {
	queue       string
	name        string
	delay       time.Duration
	maxAttempts int
}

// EnqueueOption adjusts a single Enqueue call.
type EnqueueOption func(*enqueueOptions)

// WithQueue routes the task to a named queue.
func WithQueue(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		if name != "" {
			o.queue = name
		}
	}
}

// WithDelay postpones the first attempt.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithMaxAttempts overrides the attempt budget for one task.
func WithMaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithTaskName overrides the handler key derived from the payload type.
func WithTaskName(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.name = name
	}
}

// Enqueue stores payload as a pending task and returns its id.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) (uuid.UUID, error) {
	if payload == nil {
		return uuid.Nil, ErrPayloadNil
	}

	o := enqueueOptions{queue: e.queue, maxAttempts: e.maxAttempts}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = taskName(payload)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, errors.Join(ErrPayloadMarshal, fmt.Errorf("%T: %w", payload, err))
	}

	now := e.now()
	task := &Task{
		ID:          uuid.New(),
		Queue:       o.queue,
		Name:        o.name,
		Payload:     raw,
		Status:      TaskStatusPending,
		MaxAttempts: o.maxAttempts,
		RunAt:       now.Add(o.delay),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.repo.CreateTask(ctx, task); err != nil {
		return uuid.Nil, errors.Join(ErrTaskCreate, fmt.Errorf("task %q in queue %q: %w", task.Name, task.Queue, err))
	}
	return task.ID, nil
}
