package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultQueueName is used when neither the enqueuer nor the call names a queue.
const DefaultQueueName = "default"

// TaskStatus is the lifecycle state of a stored task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Task is a unit of background work. Payload holds the JSON encoding of the
// value passed to Enqueuer.Enqueue; Name selects the handler.
type Task struct {
	ID          uuid.UUID       `json:"id"`
	Queue       string          `json:"queue"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload"`
	Status      TaskStatus      `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	RunAt       time.Time       `json:"run_at"`
	LockedUntil *time.Time      `json:"locked_until,omitempty"`
	LockedBy    *uuid.UUID      `json:"locked_by,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// claimable reports whether a worker may take the task at now. A processing
// task whose lock expired belongs to a dead worker and is claimable again.
func (t *Task) claimable(now time.Time) bool {
	if t.RunAt.After(now) {
		return false
	}
	switch t.Status {
	case TaskStatusPending:
		return true
	case TaskStatusProcessing:
		return t.LockedUntil != nil && t.LockedUntil.Before(now)
	default:
		return false
	}
}

// DeadTask is a task that exhausted its attempts or could never succeed.
// Dead tasks are kept for manual inspection and requeue.
type DeadTask struct {
	ID       uuid.UUID       `json:"id"`
	TaskID   uuid.UUID       `json:"task_id"`
	Queue    string          `json:"queue"`
	Name     string          `json:"name"`
	Payload  json.RawMessage `json:"payload"`
	Error    string          `json:"error"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}
