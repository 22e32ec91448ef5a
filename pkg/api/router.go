package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/paywall/pkg/billing"
	"github.com/dmitrymomot/paywall/pkg/logger"
	"github.com/dmitrymomot/paywall/pkg/requestid"
)

// RouterOptions wires the collaborators served by the router. Billing and
// Session are required; nil handlers leave their routes unmounted.
type RouterOptions struct {
	Billing Billing
	Session billing.Session
	// Authenticate places the caller in the request context for Session.
	Authenticate func(http.Handler) http.Handler

	// Webhooks serves POST {WebhookPrefix}/orders and
	// POST {WebhookPrefix}/events. WebhookPrefix defaults to "/polar".
	Webhooks      http.Handler
	WebhookPrefix string

	Liveness  http.Handler
	Readiness http.Handler
	Metrics   http.Handler

	Logger *slog.Logger
}

// Router builds the service's HTTP routes.
//
//	r := api.Router(api.RouterOptions{
//		Billing:      svc,
//		Session:      auth.Session,
//		Authenticate: auth.Middleware(authenticator, extract, log),
//		Webhooks:     webhookHandler,
//	})
func Router(opts RouterOptions) chi.Router {
	if opts.Billing == nil {
		panic("api: Billing is required")
	}
	if opts.Session == nil {
		panic("api: Session is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	h := &handlers{billing: opts.Billing, session: opts.Session, log: log}

	r := chi.NewRouter()
	r.Use(requestid.Middleware(requestid.Header, requestid.WebhookHeader))
	r.Use(middleware.Recoverer)
	r.Use(accessLog(log))

	if opts.Liveness != nil {
		r.Method(http.MethodGet, "/healthz", opts.Liveness)
	}
	if opts.Readiness != nil {
		r.Method(http.MethodGet, "/readyz", opts.Readiness)
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	if opts.Webhooks != nil {
		prefix := opts.WebhookPrefix
		if prefix == "" {
			prefix = "/polar"
		}
		r.Route(prefix, func(r chi.Router) {
			r.Method(http.MethodPost, "/orders", opts.Webhooks)
			r.Method(http.MethodPost, "/events", opts.Webhooks)
		})
	}

	r.Route("/billing", func(r chi.Router) {
		if opts.Authenticate != nil {
			r.Use(opts.Authenticate)
		}
		r.Get("/status", h.status)
		r.Post("/checkout", h.checkout)
		r.Post("/portal", h.portal)
		r.Post("/subscription/cancel", h.cancelSubscription)
		r.Post("/subscription/change", h.changeSubscription)
	})

	return r
}

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.DebugContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				logger.Duration(time.Since(start)),
			)
		})
	}
}
