package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/paywall/pkg/logger"
)

// DefaultMaxBodySize caps the size of an accepted delivery.
const DefaultMaxBodySize int64 = 1 << 20

// Delivery outcomes reported to Metrics.
const (
	OutcomeProcessed    = "processed"
	OutcomeIgnored      = "ignored"
	OutcomeDuplicate    = "duplicate"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid"
	OutcomeFailed       = "failed"
)

// Metrics receives one observation per delivery.
type Metrics interface {
	WebhookDelivery(eventType, outcome string)
}

type nopMetrics struct{}

func (nopMetrics) WebhookDelivery(string, string) {}

// Handler receives payments-provider webhooks. It verifies the delivery,
// classifies it and schedules follow-up work through the Dispatcher, then
// responds without waiting for that work.
type Handler struct {
	verifier   Verifier
	parser     Parser
	dispatcher Dispatcher
	dedup      Deduplicator
	logger     *slog.Logger
	metrics    Metrics
	maxBody    int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithParser replaces the Polar payload parser.
func WithParser(p Parser) HandlerOption {
	return func(h *Handler) { h.parser = p }
}

func WithDeduplicator(d Deduplicator) HandlerOption {
	return func(h *Handler) { h.dedup = d }
}

func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

func WithMetrics(m Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

func WithMaxBodySize(n int64) HandlerOption {
	return func(h *Handler) { h.maxBody = n }
}

func NewHandler(verifier Verifier, dispatcher Dispatcher, opts ...HandlerOption) *Handler {
	if verifier == nil {
		panic("webhook: Verifier is required")
	}
	if dispatcher == nil {
		panic("webhook: Dispatcher is required")
	}
	h := &Handler{
		verifier:   verifier,
		parser:     PolarParser,
		dispatcher: dispatcher,
		dedup:      nopDeduplicator{},
		logger:     logger.Discard(),
		metrics:    nopMetrics{},
		maxBody:    DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.metrics.WebhookDelivery("", OutcomeInvalid)
		respond(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if err := h.verifier.Verify(r.Header, body); err != nil {
		if errors.Is(err, ErrSecretNotConfigured) {
			h.logger.ErrorContext(ctx, "webhook secret is not configured")
			h.metrics.WebhookDelivery("", OutcomeFailed)
			respond(w, http.StatusInternalServerError, "webhook secret not configured")
			return
		}
		h.logger.WarnContext(ctx, "webhook signature rejected", logger.Error(err))
		h.metrics.WebhookDelivery("", OutcomeUnauthorized)
		respond(w, http.StatusForbidden, "invalid signature")
		return
	}

	ev, err := h.parser.Parse(body)
	if err != nil {
		h.logger.WarnContext(ctx, "webhook payload rejected", logger.Error(err))
		h.metrics.WebhookDelivery("", OutcomeInvalid)
		respond(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if ev.ID == "" {
		ev.ID = r.Header.Get(HeaderID)
	}

	log := h.logger.With(logger.EventType(ev.RawType), logger.WebhookID(ev.ID))

	if ev.Type == EventIgnored {
		log.DebugContext(ctx, "webhook event ignored")
		h.metrics.WebhookDelivery(ev.RawType, OutcomeIgnored)
		respond(w, http.StatusOK, "")
		return
	}

	if ev.ID != "" {
		first, err := h.dedup.Claim(ctx, ev.ID)
		if err != nil {
			// Processing twice is preferable to dropping the delivery.
			log.WarnContext(ctx, "webhook dedup unavailable", logger.Error(err))
			first = true
		}
		if !first {
			log.InfoContext(ctx, "duplicate webhook delivery skipped")
			h.metrics.WebhookDelivery(ev.RawType, OutcomeDuplicate)
			respond(w, http.StatusOK, "")
			return
		}
	}

	if err := h.dispatch(ctx, log, ev); err != nil {
		log.ErrorContext(ctx, "failed to schedule webhook work", logger.Error(err))
		if ev.ID != "" {
			if rerr := h.dedup.Release(ctx, ev.ID); rerr != nil {
				log.WarnContext(ctx, "failed to release webhook claim", logger.Error(rerr))
			}
		}
		h.metrics.WebhookDelivery(ev.RawType, OutcomeFailed)
		respond(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	h.metrics.WebhookDelivery(ev.RawType, OutcomeProcessed)
	respond(w, http.StatusOK, "")
}

// dispatch schedules the work for ev.
func (h *Handler) dispatch(ctx context.Context, log *slog.Logger, ev *Event) error {
	switch ev.Type {
	case EventOrderPaid:
		if !ev.isOneTimeProduct() {
			log.DebugContext(ctx, "paid order for recurring product, nothing to do")
			return nil
		}
		if ev.Customer.Email == "" {
			log.WarnContext(ctx, "paid lifetime order without customer email, welcome skipped",
				logger.OrderID(ev.ResourceID),
			)
		} else if err := h.dispatcher.Welcome(ctx, Welcome{
			Email:       ev.Customer.Email,
			Name:        ev.Customer.DisplayName(),
			ProductName: ev.Product.Name,
			IsLifetime:  true,
		}); err != nil {
			return errors.Join(ErrDispatchFailed, err)
		}
		if ev.Customer.ID != "" {
			if err := h.dispatcher.CancelRecurring(ctx, ev.Customer.ID); err != nil {
				return errors.Join(ErrDispatchFailed, err)
			}
		}

	case EventSubscriptionCreated:
		if ev.Customer.Email == "" {
			log.WarnContext(ctx, "subscription without customer email, welcome skipped",
				logger.SubscriptionID(ev.ResourceID),
			)
			return nil
		}
		var productName string
		if ev.Product != nil {
			productName = ev.Product.Name
		}
		if err := h.dispatcher.Welcome(ctx, Welcome{
			Email:       ev.Customer.Email,
			Name:        ev.Customer.DisplayName(),
			ProductName: productName,
			IsLifetime:  ev.isOneTimeProduct(),
		}); err != nil {
			return errors.Join(ErrDispatchFailed, err)
		}

	case EventSubscriptionUpdated:
		if ev.CancellationReason == "" || ev.Customer.Email == "" {
			return nil
		}
		if err := h.dispatcher.Cancellation(ctx, Cancellation{
			Email: ev.Customer.Email,
			Name:  ev.Customer.DisplayName(),
		}); err != nil {
			return errors.Join(ErrDispatchFailed, err)
		}
	}
	return nil
}

func respond(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = w.Write([]byte(`{"received":true}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
