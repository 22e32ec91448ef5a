package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/paywall/pkg/billing"
	"github.com/dmitrymomot/paywall/pkg/logger"
)

// TokenExtractorFunc pulls a token from a request. It returns
// ErrMissingToken when the request carries none.
type TokenExtractorFunc func(r *http.Request) (string, error)

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// CookieTokenExtractor reads the token from a cookie.
func CookieTokenExtractor(name string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return "", ErrMissingToken
		}
		return c.Value, nil
	}
}

// ChainExtractors tries extractors in order and returns the first token found.
func ChainExtractors(extractors ...TokenExtractorFunc) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if errors.Is(err, ErrMissingToken) {
				continue
			}
			return token, err
		}
		return "", ErrMissingToken
	}
}

// Middleware authenticates requests that carry a token. Requests without
// one continue anonymously, so handlers decide whether a user is required;
// a token that fails validation is rejected with 401.
func Middleware(a *Authenticator, extract TokenExtractorFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if extract == nil {
		extract = BearerTokenExtractor
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extract(r)
			if errors.Is(err, ErrMissingToken) {
				next.ServeHTTP(w, r)
				return
			}

			var user *billing.User
			if err == nil {
				user, err = a.Authenticate(token)
			}
			if err != nil {
				log.WarnContext(r.Context(), "token rejected",
					slog.String("path", r.URL.Path),
					logger.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired token"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
