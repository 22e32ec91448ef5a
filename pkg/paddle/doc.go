// Package paddle implements billing.Provider on top of the Paddle Billing
// SDK, together with a webhook.Verifier and webhook.Parser for Paddle
// notifications.
//
// Paddle has no benefit grants and no order objects. Customer state is the
// list of active subscriptions, and orders are completed transactions: a
// transaction without a subscription is a one-time purchase. Checkout takes
// a Paddle price id where other providers take a product id.
package paddle
