package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

// Billing is the billing surface served over HTTP. *billing.Service
// implements it.
type Billing interface {
	Status(ctx context.Context, sess billing.Session) (*billing.Entitlement, error)
	Checkout(ctx context.Context, sess billing.Session, p billing.CheckoutParams) (*billing.CheckoutSession, error)
	PortalURL(ctx context.Context, sess billing.Session, returnURL string) (string, error)
	CancelSubscription(ctx context.Context, sess billing.Session) (*billing.Subscription, error)
	ChangeSubscription(ctx context.Context, sess billing.Session, productID string) (*billing.Subscription, error)
}

type handlers struct {
	billing Billing
	session billing.Session
	log     *slog.Logger
}

type urlResponse struct {
	URL string `json:"url"`
}

type subscriptionResponse struct {
	Subscription *billing.Subscription `json:"subscription"`
}

// status answers with the caller's entitlement, or null for anonymous
// callers.
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	ent, err := h.billing.Status(r.Context(), h.session)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ent)
}

func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	var p billing.CheckoutParams
	if err := decode(w, r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	if p.Amount != nil && *p.Amount <= 0 {
		h.fail(w, r, ErrInvalidAmount)
		return
	}

	cs, err := h.billing.Checkout(r.Context(), h.session, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: cs.URL})
}

func (h *handlers) portal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReturnURL string `json:"returnUrl"`
	}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	url, err := h.billing.PortalURL(r.Context(), h.session, req.ReturnURL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: url})
}

func (h *handlers) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.billing.CancelSubscription(r.Context(), h.session)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{Subscription: sub})
}

func (h *handlers) changeSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sub, err := h.billing.ChangeSubscription(r.Context(), h.session, req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{Subscription: sub})
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.log, err)
}
