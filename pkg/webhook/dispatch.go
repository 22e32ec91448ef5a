package webhook

import "context"

// Welcome is the premium welcome notification.
type Welcome struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	ProductName string `json:"productName"`
	IsLifetime  bool   `json:"isLifetime"`
}

// Cancellation is the cancellation confirmation notification.
type Cancellation struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Dispatcher schedules the work a delivery triggers. Implementations must
// only schedule: the handler responds once every call has returned, and the
// work itself runs asynchronously with at-least-once semantics.
type Dispatcher interface {
	Welcome(ctx context.Context, msg Welcome) error
	Cancellation(ctx context.Context, msg Cancellation) error
	CancelRecurring(ctx context.Context, customerID string) error
}
