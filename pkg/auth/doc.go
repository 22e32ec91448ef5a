// Package auth authenticates requests with HS256 bearer tokens issued by the
// identity provider and exposes the caller as a billing.Session.
package auth
