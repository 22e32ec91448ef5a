// Package async runs independent calls concurrently and collects their
// results through a generic Future.
//
// Async starts a function in its own goroutine and returns immediately; the
// caller waits with Await or AwaitWithTimeout. Resolved builds a future that
// is already complete, for branches that have nothing to fetch.
//
//	sub := async.Async(ctx, customerID, fetchSubscription)
//	state := async.Async(ctx, customerID, fetchState)
//
//	s, err := sub.Await()
//	st, err := state.Await()
//
// Each future carries the error of its own call; a failed call does not
// cancel the others.
package async
