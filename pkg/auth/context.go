package auth

import (
	"context"

	"github.com/dmitrymomot/paywall/pkg/billing"
)

type contextKey struct{ name string }

var userContextKey = &contextKey{name: "auth_user"}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *billing.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *billing.User {
	u, _ := ctx.Value(userContextKey).(*billing.User)
	return u
}

// Session is the billing.Session of an HTTP request: the user placed in the
// context by Middleware, or anonymous.
var Session billing.Session = billing.SessionFunc(func(ctx context.Context) (*billing.User, error) {
	return UserFromContext(ctx), nil
})
