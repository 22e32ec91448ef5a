package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/paywall/pkg/queue"
	"github.com/dmitrymomot/paywall/pkg/webhook"
)

// Enqueuer is the queue side used by the Dispatcher.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) (uuid.UUID, error)
}

// Dispatcher turns webhook side effects into queued tasks.
type Dispatcher struct {
	enq Enqueuer
}

var _ webhook.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(enq Enqueuer) *Dispatcher {
	return &Dispatcher{enq: enq}
}

func (d *Dispatcher) Welcome(ctx context.Context, msg webhook.Welcome) error {
	_, err := d.enq.Enqueue(ctx, WelcomeEmail{
		Email:       msg.Email,
		Name:        msg.Name,
		ProductName: msg.ProductName,
		IsLifetime:  msg.IsLifetime,
	})
	return err
}

func (d *Dispatcher) Cancellation(ctx context.Context, msg webhook.Cancellation) error {
	_, err := d.enq.Enqueue(ctx, CancellationEmail{Email: msg.Email, Name: msg.Name})
	return err
}

func (d *Dispatcher) CancelRecurring(ctx context.Context, customerID string) error {
	_, err := d.enq.Enqueue(ctx, CancelRecurring{CustomerID: customerID})
	return err
}
