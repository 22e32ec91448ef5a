package queue

import (
	"context"
	"encoding/json"
	"errors"
)

// Handler executes tasks of one name.
type Handler interface {
	Name() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

// TaskHandlerFunc handles a decoded payload of type T.
type TaskHandlerFunc[T any] func(ctx context.Context, payload T) error

// NewTaskHandler binds fn to tasks enqueued with a payload of type T.
// A payload that does not decode into T is a permanent failure.
func NewTaskHandler[T any](fn TaskHandlerFunc[T]) Handler {
	var zero T
	return &typedHandler[T]{name: taskName(zero), fn: fn}
}

type typedHandler[T any] struct {
	name string
	fn   TaskHandlerFunc[T]
}

func (h *typedHandler[T]) Name() string { return h.name }

func (h *typedHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return errors.Join(ErrSkipRetry, ErrInvalidPayload, err)
	}
	return h.fn(ctx, v)
}
