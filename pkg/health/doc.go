// Package health exposes the liveness and readiness handlers for the API
// server. Readiness runs the named dependency checks in parallel under a
// fixed budget:
//
//	r.Get("/healthz", health.LivenessHandler())
//	r.Get("/readyz", health.ReadinessHandler(log, health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	    "redis":    redis.Healthcheck(client),
//	}))
package health
