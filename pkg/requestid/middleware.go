package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	Header = "X-Request-ID"
	// WebhookHeader carries the provider's delivery id. Reusing it ties the
	// service logs to the provider's delivery log.
	WebhookHeader = "webhook-id"

	maxIDLength = 128
)

var validID = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Middleware assigns a request id taken from the first valid value among
// headers, or a new UUID. The id is stored in the context and echoed in the
// X-Request-ID response header. With no headers it reads X-Request-ID.
func Middleware(headers ...string) func(http.Handler) http.Handler {
	if len(headers) == 0 {
		headers = []string{Header}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			for _, h := range headers {
				if v := r.Header.Get(h); isValid(v) {
					id = v
					break
				}
			}
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}

func isValid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
