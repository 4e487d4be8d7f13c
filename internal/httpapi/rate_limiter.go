package httpapi

import (
	"fmt"
	"sync"
	"time"
)

const (
	defaultRateWindow         = 30 * time.Second
	defaultMaxRequestsPerIP   = 6
	rateLimiterPruneThreshold = 1024
)

// RateLimiter counts requests per client address within fixed time windows.
type RateLimiter struct {
	window      time.Duration
	maxRequests int
	clock       func() time.Time
	mutex       sync.Mutex
	counters    map[string]int
}

// NewRateLimiter builds a limiter allowing maxRequests per window. Non-positive values use the defaults.
func NewRateLimiter(window time.Duration, maxRequests int) *RateLimiter {
	if window <= 0 {
		window = defaultRateWindow
	}
	if maxRequests <= 0 {
		maxRequests = defaultMaxRequestsPerIP
	}
	return &RateLimiter{window: window, maxRequests: maxRequests, clock: time.Now, counters: make(map[string]int)}
}

// Allow records a request from address and reports whether it is within the limit.
func (limiter *RateLimiter) Allow(address string) bool {
	bucket := limiter.clock().UnixNano() / int64(limiter.window)
	key := fmt.Sprintf("%s:%d", address, bucket)

	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	if len(limiter.counters) > rateLimiterPruneThreshold {
		suffix := fmt.Sprintf(":%d", bucket)
		for existingKey := range limiter.counters {
			if len(existingKey) < len(suffix) || existingKey[len(existingKey)-len(suffix):] != suffix {
				delete(limiter.counters, existingKey)
			}
		}
	}
	limiter.counters[key]++
	return limiter.counters[key] <= limiter.maxRequests
}
