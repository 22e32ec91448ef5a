// Package httpserver runs the service's HTTP listener with graceful shutdown
// and provides liveness and readiness probe handlers.
//
//	srv := httpserver.New(cfg, router, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx) })
//
// Run returns once ctx is cancelled and in-flight requests have drained, or
// ShutdownTimeout elapsed.
package httpserver
