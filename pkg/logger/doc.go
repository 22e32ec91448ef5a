// Package logger builds the service's *slog.Logger.
//
// New applies functional options (format, level, environment defaults, static
// attributes) and wraps the resulting handler with a decorator that copies
// request-scoped values, such as the request id, from the context into every
// record. Attribute helpers in attr.go keep key names consistent across the
// billing, webhook and notification packages:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "paywall"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.WarnContext(ctx, "customer state unavailable",
//	    logger.UserID(user.ID),
//	    logger.CustomerID(customerID),
//	    logger.Error(err),
//	)
//
// Error returns an empty attribute for a nil error, so it can be passed
// unconditionally.
package logger
