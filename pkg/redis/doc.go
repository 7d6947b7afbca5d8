// Package redis opens the go-redis client used to persist crop
// recommendation results across restarts.
//
// [Open] parses a redis:// or rediss:// URL and establishes a client with
// retrying startup; [Healthcheck] and [Shutdown] integrate the client with
// the readiness endpoint and graceful shutdown. Redis is optional: when no
// URL is configured the recommendation service falls back to recomputing on
// every request.
package redis
