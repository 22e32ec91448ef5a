package notify_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/paywall/pkg/billing"
	"github.com/dmitrymomot/paywall/pkg/email"
	"github.com/dmitrymomot/paywall/pkg/notify"
	"github.com/dmitrymomot/paywall/pkg/queue"
	"github.com/dmitrymomot/paywall/pkg/webhook"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
	err  error
}

func (s *recordingSender) SendEmail(_ context.Context, p email.SendEmailParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, p)
	return nil
}

func (s *recordingSender) messages() []email.SendEmailParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.SendEmailParams(nil), s.sent...)
}

type cancellerFunc func(ctx context.Context, customerID string) billing.CancelReport

func (f cancellerFunc) CancelRecurring(ctx context.Context, customerID string) billing.CancelReport {
	return f(ctx, customerID)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDispatcher_EnqueuesTasks(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	d := notify.NewDispatcher(enq)
	ctx := context.Background()

	require.NoError(t, d.Welcome(ctx, webhook.Welcome{Email: "a@example.com", Name: "a", ProductName: "Lifetime", IsLifetime: true}))
	require.NoError(t, d.Cancellation(ctx, webhook.Cancellation{Email: "a@example.com", Name: "a"}))
	require.NoError(t, d.CancelRecurring(ctx, "cus_1"))

	names := map[string]string{}
	for _, task := range storage.Tasks() {
		names[task.Name] = string(task.Payload)
	}
	assert.JSONEq(t, `{"email":"a@example.com","name":"a","product_name":"Lifetime","is_lifetime":true}`, names["notify.WelcomeEmail"])
	assert.JSONEq(t, `{"email":"a@example.com","name":"a"}`, names["notify.CancellationEmail"])
	assert.JSONEq(t, `{"customer_id":"cus_1"}`, names["notify.CancelRecurring"])
}

func TestHandlers_SendWelcome(t *testing.T) {
	t.Parallel()

	t.Run("renders and sends", func(t *testing.T) {
		t.Parallel()
		sender := &recordingSender{}
		h := notify.NewHandlers(sender, nil, notify.WithAppName("Acme"), notify.WithSiteURL("https://acme.test"), notify.WithLogger(quietLogger()))

		require.NoError(t, h.SendWelcome(context.Background(), notify.WelcomeEmail{Email: "ada@example.com", ProductName: "Lifetime", IsLifetime: true}))

		msgs := sender.messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "ada@example.com", msgs[0].SendTo)
		assert.Equal(t, "Your lifetime access to Acme is active", msgs[0].Subject)
		assert.Equal(t, "welcome", msgs[0].Tag)
		assert.Contains(t, msgs[0].BodyHTML, "Hi ada,")
	})

	t.Run("invalid address is permanent", func(t *testing.T) {
		t.Parallel()
		h := notify.NewHandlers(&recordingSender{}, nil, notify.WithLogger(quietLogger()))
		err := h.SendWelcome(context.Background(), notify.WelcomeEmail{Email: "not-an-email"})
		assert.ErrorIs(t, err, queue.ErrSkipRetry)
	})

	t.Run("transport failure is retried", func(t *testing.T) {
		t.Parallel()
		sender := &recordingSender{err: email.ErrFailedToSendEmail}
		h := notify.NewHandlers(sender, nil, notify.WithLogger(quietLogger()))
		err := h.SendWelcome(context.Background(), notify.WelcomeEmail{Email: "a@example.com"})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.NotErrorIs(t, err, queue.ErrSkipRetry)
	})
}

func TestHandlers_SendCancellation(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	h := notify.NewHandlers(sender, nil, notify.WithAppName("Acme"), notify.WithLogger(quietLogger()))
	require.NoError(t, h.SendCancellation(context.Background(), notify.CancellationEmail{Email: "bob@example.com", Name: "Bob"}))

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Your Acme subscription was cancelled", msgs[0].Subject)
	assert.Contains(t, msgs[0].BodyHTML, "Hi Bob,")
}

func TestHandlers_CancelRecurring(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		var got string
		h := notify.NewHandlers(nil, cancellerFunc(func(_ context.Context, id string) billing.CancelReport {
			got = id
			return billing.CancelReport{Cancelled: 2}
		}), notify.WithLogger(quietLogger()))

		require.NoError(t, h.CancelRecurring(context.Background(), notify.CancelRecurring{CustomerID: "cus_1"}))
		assert.Equal(t, "cus_1", got)
	})

	t.Run("partial failure retries", func(t *testing.T) {
		t.Parallel()
		h := notify.NewHandlers(nil, cancellerFunc(func(context.Context, string) billing.CancelReport {
			return billing.CancelReport{Cancelled: 1, Errors: []string{"subscription sub_2: upstream"}}
		}), notify.WithLogger(quietLogger()))

		err := h.CancelRecurring(context.Background(), notify.CancelRecurring{CustomerID: "cus_1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sub_2")
		assert.NotErrorIs(t, err, queue.ErrSkipRetry)
	})

	t.Run("missing customer", func(t *testing.T) {
		t.Parallel()
		h := notify.NewHandlers(nil, nil, notify.WithLogger(quietLogger()))
		err := h.CancelRecurring(context.Background(), notify.CancelRecurring{})
		assert.ErrorIs(t, err, queue.ErrSkipRetry)
	})
}

func TestHandlers_ThroughWorker(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	sender := &recordingSender{}
	cancelled := make(chan string, 1)
	h := notify.NewHandlers(sender, cancellerFunc(func(_ context.Context, id string) billing.CancelReport {
		cancelled <- id
		return billing.CancelReport{Cancelled: 1}
	}), notify.WithLogger(quietLogger()))

	w, err := queue.NewWorker(storage, queue.WithPollInterval(5*time.Millisecond), queue.WithWorkerLogger(quietLogger()))
	require.NoError(t, err)
	w.RegisterHandlers(h.QueueHandlers()...)

	d := notify.NewDispatcher(enq)
	require.NoError(t, d.Welcome(context.Background(), webhook.Welcome{Email: "a@example.com", Name: "a"}))
	require.NoError(t, d.CancelRecurring(context.Background(), "cus_9"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx)() }()

	select {
	case id := <-cancelled:
		assert.Equal(t, "cus_9", id)
	case <-time.After(time.Second):
		t.Fatal("cancel recurring task was not processed")
	}
	require.Eventually(t, func() bool { return len(sender.messages()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, storage.DeadTasks())
}
