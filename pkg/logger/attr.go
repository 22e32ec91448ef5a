package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". Returns an empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the platform user identifier under "user_id".
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// CustomerID records the payments-provider customer under "customer_id".
func CustomerID(id string) slog.Attr {
	return slog.String("customer_id", id)
}

func SubscriptionID(id string) slog.Attr {
	return slog.String("subscription_id", id)
}

func OrderID(id string) slog.Attr {
	return slog.String("order_id", id)
}

func ProductID(id string) slog.Attr {
	return slog.String("product_id", id)
}

// EventType records the webhook event type under "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// WebhookID records the provider's delivery id under "webhook_id".
func WebhookID(id string) slog.Attr {
	return slog.String("webhook_id", id)
}

func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

func Page(n int) slog.Attr {
	return slog.Int("page", n)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func TaskName(name string) slog.Attr {
	return slog.String("task_name", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
