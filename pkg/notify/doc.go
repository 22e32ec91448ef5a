// Package notify carries webhook side effects through the task queue: the
// Dispatcher enqueues them and Handlers executes them, rendering and sending
// emails or revoking superseded subscriptions.
package notify
