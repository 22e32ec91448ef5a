package queue

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements EnqueuerRepository and WorkerRepository in
// process. It is used in tests and in development when no database is
// configured; tasks do not survive a restart.
type MemoryStorage struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
	dead  []DeadTask
	now   func() time.Time
}

// NewMemoryStorage creates an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks: make(map[uuid.UUID]*Task),
		now:   time.Now,
	}
}

// CreateTask stores a copy of task.
func (ms *MemoryStorage) CreateTask(_ context.Context, task *Task) error {
	if task == nil {
		return ErrPayloadNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	t := *task
	ms.tasks[t.ID] = &t
	return nil
}

// ClaimTask locks the runnable task with the earliest RunAt.
func (ms *MemoryStorage) ClaimTask(_ context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	var next *Task
	for _, t := range ms.tasks {
		if !slices.Contains(queues, t.Queue) || !t.claimable(now) {
			continue
		}
		if next == nil || t.RunAt.Before(next.RunAt) {
			next = t
		}
	}
	if next == nil {
		return nil, ErrNoTaskToClaim
	}

	until := now.Add(lockDuration)
	next.Status = TaskStatusProcessing
	next.LockedUntil = &until
	next.LockedBy = &workerID
	next.UpdatedAt = now

	t := *next
	return &t, nil
}

// CompleteTask implements WorkerRepository.
func (ms *MemoryStorage) CompleteTask(_ context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, err := ms.locked(taskID)
	if err != nil {
		return err
	}
	t.Status = TaskStatusCompleted
	t.Attempts++
	t.LockedUntil, t.LockedBy = nil, nil
	t.UpdatedAt = ms.now()
	return nil
}

// PurgeCompleted implements Purger.
func (ms *MemoryStorage) PurgeCompleted(_ context.Context, before time.Time) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var n int64
	for id, t := range ms.tasks {
		if t.Status == TaskStatusCompleted && t.UpdatedAt.Before(before) {
			delete(ms.tasks, id)
			n++
		}
	}
	return n, nil
}

// RetryTask implements WorkerRepository.
func (ms *MemoryStorage) RetryTask(_ context.Context, taskID uuid.UUID, errMsg string, retryAt time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, err := ms.locked(taskID)
	if err != nil {
		return err
	}
	t.Status = TaskStatusPending
	t.Attempts++
	t.LastError = errMsg
	t.RunAt = retryAt
	t.LockedUntil, t.LockedBy = nil, nil
	t.UpdatedAt = ms.now()
	return nil
}

// MoveToDLQ implements WorkerRepository.
func (ms *MemoryStorage) MoveToDLQ(_ context.Context, taskID uuid.UUID, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, ok := ms.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	ms.dead = append(ms.dead, DeadTask{
		ID:       uuid.New(),
		TaskID:   t.ID,
		Queue:    t.Queue,
		Name:     t.Name,
		Payload:  t.Payload,
		Error:    errMsg,
		Attempts: t.Attempts + 1,
		FailedAt: ms.now(),
	})
	delete(ms.tasks, taskID)
	return nil
}

// Task returns a copy of a stored task.
func (ms *MemoryStorage) Task(taskID uuid.UUID) (Task, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, ok := ms.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Tasks returns copies of all stored tasks.
func (ms *MemoryStorage) Tasks() []Task {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]Task, 0, len(ms.tasks))
	for _, t := range ms.tasks {
		out = append(out, *t)
	}
	return out
}

// DeadTasks returns the dead letter queue.
func (ms *MemoryStorage) DeadTasks() []DeadTask {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return slices.Clone(ms.dead)
}

func (ms *MemoryStorage) locked(taskID uuid.UUID) (*Task, error) {
	t, ok := ms.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if t.Status != TaskStatusProcessing {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotLocked, taskID)
	}
	return t, nil
}
