package notify

// WelcomeEmail is the queued premium welcome message.
type WelcomeEmail struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	ProductName string `json:"product_name"`
	IsLifetime  bool   `json:"is_lifetime"`
}

// CancellationEmail is the queued cancellation confirmation.
type CancellationEmail struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CancelRecurring revokes the recurring subscriptions of a customer who
// bought lifetime access.
type CancelRecurring struct {
	CustomerID string `json:"customer_id"`
}
