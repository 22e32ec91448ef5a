package redis

import "errors"

var (
	ErrInvalidURL        = errors.New("redis: invalid REDIS_URL")
	ErrNotReady          = errors.New("redis: server not ready")
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
