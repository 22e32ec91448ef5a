// Package redis connects to Redis with retries and exposes a readiness
// check. The client backs webhook delivery de-duplication.
package redis
