package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/paywall/pkg/billing"
	"github.com/dmitrymomot/paywall/pkg/email"
	"github.com/dmitrymomot/paywall/pkg/email/templates"
	"github.com/dmitrymomot/paywall/pkg/logger"
	"github.com/dmitrymomot/paywall/pkg/queue"
)

// RecurringCanceller revokes a customer's recurring subscriptions.
type RecurringCanceller interface {
	CancelRecurring(ctx context.Context, customerID string) billing.CancelReport
}

// Handlers executes queued notification tasks.
type Handlers struct {
	sender    email.Sender
	canceller RecurringCanceller
	appName   string
	siteURL   string
	logger    *slog.Logger
}

// Option configures Handlers.
type Option func(*Handlers)

// WithAppName sets the product name shown in messages.
func WithAppName(name string) Option {
	return func(h *Handlers) {
		if name != "" {
			h.appName = name
		}
	}
}

// WithSiteURL sets the link included in messages.
func WithSiteURL(url string) Option {
	return func(h *Handlers) { h.siteURL = url }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handlers) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandlers(sender email.Sender, canceller RecurringCanceller, opts ...Option) *Handlers {
	h := &Handlers{
		sender:    sender,
		canceller: canceller,
		appName:   "Paywall",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// QueueHandlers returns the handlers to register on a queue.Worker.
func (h *Handlers) QueueHandlers() []queue.Handler {
	return []queue.Handler{
		queue.NewTaskHandler(h.SendWelcome),
		queue.NewTaskHandler(h.SendCancellation),
		queue.NewTaskHandler(h.CancelRecurring),
	}
}

func (h *Handlers) SendWelcome(ctx context.Context, t WelcomeEmail) error {
	d := templates.WelcomeData{
		AppName:     h.appName,
		SiteURL:     h.siteURL,
		Name:        billing.DisplayName(t.Name, t.Email),
		ProductName: t.ProductName,
		IsLifetime:  t.IsLifetime,
	}
	return h.send(ctx, t.Email, templates.WelcomeSubject(d), "welcome", func() (string, error) {
		return templates.Render(ctx, templates.Welcome(d))
	})
}

func (h *Handlers) SendCancellation(ctx context.Context, t CancellationEmail) error {
	d := templates.CancellationData{
		AppName: h.appName,
		SiteURL: h.siteURL,
		Name:    billing.DisplayName(t.Name, t.Email),
	}
	return h.send(ctx, t.Email, templates.CancellationSubject(d), "cancellation", func() (string, error) {
		return templates.Render(ctx, templates.Cancellation(d))
	})
}

func (h *Handlers) send(ctx context.Context, to, subject, tag string, render func() (string, error)) error {
	body, err := render()
	if err != nil {
		return errors.Join(queue.ErrSkipRetry, fmt.Errorf("render %s email: %w", tag, err))
	}

	err = h.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  subject,
		BodyHTML: body,
		Tag:      tag,
	})
	if errors.Is(err, email.ErrInvalidParams) {
		return errors.Join(queue.ErrSkipRetry, err)
	}
	if err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "email sent", slog.String("tag", tag))
	return nil
}

// CancelRecurring fails the task when any revoke failed, so the remaining
// subscriptions are retried. Already revoked ones are no longer active and
// are skipped on the next attempt.
func (h *Handlers) CancelRecurring(ctx context.Context, t CancelRecurring) error {
	if t.CustomerID == "" {
		return errors.Join(queue.ErrSkipRetry, errors.New("cancel recurring: empty customer id"))
	}

	report := h.canceller.CancelRecurring(ctx, t.CustomerID)
	h.logger.InfoContext(ctx, "recurring subscriptions cancelled",
		logger.CustomerID(t.CustomerID),
		slog.Int("cancelled", report.Cancelled),
		slog.Int("errors", len(report.Errors)))

	if len(report.Errors) > 0 {
		return fmt.Errorf("cancel recurring for %s: %s", t.CustomerID, strings.Join(report.Errors, "; "))
	}
	return nil
}
