package queue

import (
	"fmt"
	"strings"
)

// taskName derives a stable handler key from the payload's Go type,
// e.g. "notify.WelcomeEmail".
func taskName(v any) string {
	return strings.TrimLeft(fmt.Sprintf("%T", v), "*")
}
