package queue

import "errors"

var (
	ErrRepositoryNil   = errors.New("queue: repository cannot be nil")
	ErrPayloadNil      = errors.New("queue: payload cannot be nil")
	ErrPayloadMarshal  = errors.New("queue: failed to marshal payload")
	ErrInvalidPayload  = errors.New("queue: failed to decode task payload")
	ErrTaskCreate      = errors.New("queue: failed to create task")
	ErrTaskNotFound    = errors.New("queue: task not found")
	ErrTaskNotLocked   = errors.New("queue: task is not in processing state")
	ErrNoTaskToClaim   = errors.New("queue: no task to claim")
	ErrHandlerNotFound = errors.New("queue: no handler registered for task")
	ErrNoHandlers      = errors.New("queue: no task handlers registered")
	ErrShutdownTimeout = errors.New("queue: worker shutdown timed out")

	// ErrSkipRetry marks a handler error as permanent: the task goes to the
	// dead letter queue without further attempts.
	ErrSkipRetry = errors.New("queue: skip retry")
)
