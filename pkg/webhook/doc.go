// Package webhook receives payments-provider webhooks.
//
// A [Handler] verifies each delivery with a [Verifier] (Standard Webhooks for
// Polar), parses it into an [Event], drops repeated deliveries through a
// [Deduplicator] and schedules notifications through a [Dispatcher]:
//
//   - order.paid for a one-time product schedules a lifetime welcome email and
//     the revocation of the customer's recurring subscriptions;
//   - subscription.created schedules a welcome email;
//   - subscription.updated with a cancellation reason schedules a
//     cancellation confirmation.
//
// Responses: 500 when no secret is configured, 403 for a bad signature,
// 400 for an unparsable body and 200 otherwise. A 500 is also returned when
// scheduling fails so the provider retries the delivery.
package webhook
