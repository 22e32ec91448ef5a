// Package requestid tags each HTTP request with a correlation id.
//
// The id comes from a trusted request header when it is well formed, otherwise
// a UUID is generated. It is stored in the request context, echoed in the
// X-Request-ID response header and added to log records through
// LoggerExtractor:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware(requestid.Header, requestid.WebhookHeader))
package requestid
