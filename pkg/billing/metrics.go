package billing

// Metrics receives billing events. pkg/metrics provides a Prometheus
// implementation.
type Metrics interface {
	ProviderCallFailed(operation string)
	SubscriptionRevoked(reason string)
	EntitlementResolved(e *Entitlement)
}

type noopMetrics struct{}

func (noopMetrics) ProviderCallFailed(string)        {}
func (noopMetrics) SubscriptionRevoked(string)       {}
func (noopMetrics) EntitlementResolved(*Entitlement) {}

// Revocation reasons reported to Metrics.
const (
	RevokeReasonLifetime = "lifetime_supersedes"
	RevokeReasonBulk     = "bulk_cancel"
)
