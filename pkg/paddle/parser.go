package paddle

import (
	"encoding/json"
	"errors"

	"github.com/dmitrymomot/paywall/pkg/webhook"
)

type notification struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type resource struct {
	ID              string         `json:"id"`
	Status          string         `json:"status"`
	CustomerID      string         `json:"customer_id"`
	SubscriptionID  *string        `json:"subscription_id"`
	CustomData      map[string]any `json:"custom_data"`
	Items           []resourceItem `json:"items"`
	ScheduledChange *struct {
		Action string `json:"action"`
	} `json:"scheduled_change"`
}

type resourceItem struct {
	Price struct {
		ID          string `json:"id"`
		ProductID   string `json:"product_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"price"`
	Product *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"product"`
}

// Parse classifies a Paddle notification. transaction.completed is the paid
// order; a transaction without a subscription bought a one-time product.
func Parse(body []byte) (*webhook.Event, error) {
	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, errors.Join(webhook.ErrInvalidPayload, err)
	}
	if n.EventType == "" {
		return nil, errors.Join(webhook.ErrInvalidPayload, errors.New("missing event type"))
	}

	ev := &webhook.Event{ID: n.EventID, Type: webhook.EventIgnored, RawType: n.EventType}
	switch n.EventType {
	case "transaction.completed":
		ev.Type = webhook.EventOrderPaid
	case "subscription.created":
		ev.Type = webhook.EventSubscriptionCreated
	case "subscription.updated":
		ev.Type = webhook.EventSubscriptionUpdated
	default:
		return ev, nil
	}

	var res resource
	if err := json.Unmarshal(n.Data, &res); err != nil {
		return nil, errors.Join(webhook.ErrInvalidPayload, err)
	}

	ev.ResourceID = res.ID
	ev.Customer = webhook.Customer{
		ID:    res.CustomerID,
		Email: customString(res.CustomData, customDataEmail),
		Name:  customString(res.CustomData, customDataName),
	}
	ev.Product = res.product(ev.Type != webhook.EventOrderPaid || res.SubscriptionID != nil)

	if ev.Type == webhook.EventSubscriptionUpdated {
		if res.Status == "canceled" {
			ev.CancellationReason = "canceled"
		} else if sc := res.ScheduledChange; sc != nil && sc.Action == "cancel" {
			ev.CancellationReason = "scheduled_cancel"
		}
	}
	return ev, nil
}

// Parser is the webhook.Parser for Paddle notifications.
var Parser webhook.Parser = webhook.ParserFunc(Parse)

func (r resource) product(recurring bool) *webhook.Product {
	if len(r.Items) == 0 {
		return nil
	}
	item := r.Items[0]
	p := &webhook.Product{ID: item.Price.ProductID, IsRecurring: recurring}
	switch {
	case item.Product != nil && item.Product.Name != "":
		p.Name = item.Product.Name
	case item.Price.Name != "":
		p.Name = item.Price.Name
	default:
		p.Name = item.Price.Description
	}
	if p.ID == "" && item.Product != nil {
		p.ID = item.Product.ID
	}
	return p
}

func customString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
