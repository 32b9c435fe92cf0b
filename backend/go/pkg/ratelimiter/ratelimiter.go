package ratelimiter

// RateLimiter decides whether a single request may proceed right now.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}
