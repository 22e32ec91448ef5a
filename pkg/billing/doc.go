// Package billing decides what a platform user is entitled to, based on the
// live state of a payments provider.
//
// The package is provider agnostic. A [Provider] implementation (pkg/polar or
// pkg/paddle) is created once at start-up and passed to [NewService], together
// with a [MappingStore] that links platform users to provider customers.
//
// Components:
//
//   - [Directory] looks up the customer of a user and backfills the mapping by
//     email for customers that purchased before their account was linked.
//   - [Resolver] combines the current subscription, benefit grants and paid
//     one-time orders into an [Entitlement]. When lifetime access is detected
//     next to an active recurring subscription, the subscription is revoked.
//   - [Checkout] issues hosted checkout sessions.
//   - [Canceller] revokes every recurring subscription of a customer.
//
// Individual provider failures never fail a status query; the affected
// signal is treated as absent and the failure is logged.
package billing
