// Package rate implements fixed-window request limiting keyed by
// (client identifier, route class).
//
// Keys include the route class so that an attacker exhausting one endpoint
// cannot throttle the same client on unrelated endpoints. Two backends are
// provided: an in-process counter map with an injected clock, and a Redis
// counter using INCR with a first-hit TTL. In-process window state resets
// on restart; multi-instance deployments should use the Redis backend.
package rate
