package webhook

import (
	"encoding/json"
	"errors"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

// EventType is a classified webhook event.
type EventType string

const (
	EventOrderPaid           EventType = "order.paid"
	EventSubscriptionCreated EventType = "subscription.created"
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventIgnored             EventType = "ignored"
)

// Customer is the customer a webhook event refers to.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DisplayName is the customer's name or, when empty, the local part of the
// email address.
func (c Customer) DisplayName() string {
	return billing.DisplayName(c.Name, c.Email)
}

// Product is the product an order or subscription refers to.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsRecurring bool   `json:"is_recurring"`
}

// Event is a verified delivery reduced to the fields the handler acts on.
type Event struct {
	ID                 string
	Type               EventType
	RawType            string
	ResourceID         string
	Customer           Customer
	Product            *Product
	CancellationReason string
}

// isOneTimeProduct reports whether the event names a product that is known
// to be non-recurring.
func (e *Event) isOneTimeProduct() bool {
	return e.Product != nil && !e.Product.IsRecurring
}

// Parser turns a raw delivery body into an Event.
type Parser interface {
	Parse(body []byte) (*Event, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(body []byte) (*Event, error)

func (f ParserFunc) Parse(body []byte) (*Event, error) { return f(body) }

type polarEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// polarResource covers the fields shared by Polar order and subscription
// payloads.
type polarResource struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Customer   *struct {
		ID    string  `json:"id"`
		Email string  `json:"email"`
		Name  *string `json:"name"`
	} `json:"customer"`
	Product                    *Product `json:"product"`
	CustomerCancellationReason *string  `json:"customer_cancellation_reason"`
}

// Classify parses a Polar webhook body. Event types the handler does not act
// on are returned as EventIgnored.
func Classify(body []byte) (*Event, error) {
	var env polarEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	if env.Type == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("missing event type"))
	}

	ev := &Event{Type: EventIgnored, RawType: env.Type}
	switch EventType(env.Type) {
	case EventOrderPaid, EventSubscriptionCreated, EventSubscriptionUpdated:
		ev.Type = EventType(env.Type)
	default:
		return ev, nil
	}

	var res polarResource
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	ev.ResourceID = res.ID
	ev.Product = res.Product
	ev.Customer.ID = res.CustomerID
	if c := res.Customer; c != nil {
		if ev.Customer.ID == "" {
			ev.Customer.ID = c.ID
		}
		ev.Customer.Email = c.Email
		if c.Name != nil {
			ev.Customer.Name = *c.Name
		}
	}
	if r := res.CustomerCancellationReason; r != nil {
		ev.CancellationReason = *r
	}
	return ev, nil
}

// PolarParser is the Parser for Polar deliveries.
var PolarParser Parser = ParserFunc(Classify)
