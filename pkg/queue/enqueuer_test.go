package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/paywall/pkg/queue"
)

type welcomeTask struct {
	Email string `json:"email"`
}

type failingRepo struct{}

func (failingRepo) CreateTask(context.Context, *queue.Task) error { return errors.New("db down") }

func TestNewEnqueuer_NilRepository(t *testing.T) {
	t.Parallel()
	_, err := queue.NewEnqueuer(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)
}

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("stores pending task named after payload type", func(t *testing.T) {
		t.Parallel()
		storage := queue.NewMemoryStorage()
		enq, err := queue.NewEnqueuer(storage, queue.WithDefaultMaxAttempts(3))
		require.NoError(t, err)

		id, err := enq.Enqueue(context.Background(), welcomeTask{Email: "a@example.com"})
		require.NoError(t, err)

		task, ok := storage.Task(id)
		require.True(t, ok)
		assert.Equal(t, "queue_test.welcomeTask", task.Name)
		assert.Equal(t, queue.DefaultQueueName, task.Queue)
		assert.Equal(t, queue.TaskStatusPending, task.Status)
		assert.Equal(t, 3, task.MaxAttempts)
		assert.JSONEq(t, `{"email":"a@example.com"}`, string(task.Payload))
	})

	t.Run("pointer payload uses the same name", func(t *testing.T) {
		t.Parallel()
		storage := queue.NewMemoryStorage()
		enq, err := queue.NewEnqueuer(storage)
		require.NoError(t, err)

		id, err := enq.Enqueue(context.Background(), &welcomeTask{})
		require.NoError(t, err)
		task, _ := storage.Task(id)
		assert.Equal(t, "queue_test.welcomeTask", task.Name)
	})

	t.Run("call options override defaults", func(t *testing.T) {
		t.Parallel()
		storage := queue.NewMemoryStorage()
		enq, err := queue.NewEnqueuer(storage, queue.WithDefaultQueue("mail"))
		require.NoError(t, err)

		before := time.Now()
		id, err := enq.Enqueue(context.Background(), welcomeTask{},
			queue.WithQueue("billing"),
			queue.WithDelay(time.Minute),
			queue.WithMaxAttempts(9),
			queue.WithTaskName("custom"))
		require.NoError(t, err)

		task, _ := storage.Task(id)
		assert.Equal(t, "billing", task.Queue)
		assert.Equal(t, "custom", task.Name)
		assert.Equal(t, 9, task.MaxAttempts)
		assert.True(t, task.RunAt.After(before.Add(59*time.Second)))
	})

	t.Run("nil payload", func(t *testing.T) {
		t.Parallel()
		enq, _ := queue.NewEnqueuer(queue.NewMemoryStorage())
		_, err := enq.Enqueue(context.Background(), nil)
		assert.ErrorIs(t, err, queue.ErrPayloadNil)
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		t.Parallel()
		enq, _ := queue.NewEnqueuer(queue.NewMemoryStorage())
		_, err := enq.Enqueue(context.Background(), map[string]any{"ch": make(chan int)})
		assert.ErrorIs(t, err, queue.ErrPayloadMarshal)
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()
		enq, _ := queue.NewEnqueuer(failingRepo{})
		_, err := enq.Enqueue(context.Background(), welcomeTask{})
		assert.ErrorIs(t, err, queue.ErrTaskCreate)
	})
}
