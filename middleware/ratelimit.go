package middleware

import (
	"net/http"
	"sync"
	"time"

	"flaredrive/models"

	"github.com/gin-gonic/gin"
)

// RateLimiter limits requests per client IP over a fixed window
type RateLimiter struct {
	// Maximum requests per window per IP
	limit  int
	window time.Duration
	// Map to track request counts and window starts
	clients   map[string]*clientLimit
	lastSweep time.Time
	mu        sync.Mutex

	now func() time.Time
}

type clientLimit struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter allowing ratePerMinute requests per IP
func NewRateLimiter(ratePerMinute int) *RateLimiter {
	return &RateLimiter{
		limit:   ratePerMinute,
		window:  time.Minute,
		clients: make(map[string]*clientLimit),
		now:     time.Now,
	}
}

// Allow records a request from ip and reports whether it is within the limit
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	// Drop idle clients at most once per window
	if now.Sub(rl.lastSweep) > rl.window {
		for key, client := range rl.clients {
			if now.Sub(client.windowStart) > 2*rl.window {
				delete(rl.clients, key)
			}
		}
		rl.lastSweep = now
	}

	client, exists := rl.clients[ip]
	if !exists || now.Sub(client.windowStart) >= rl.window {
		client = &clientLimit{windowStart: now}
		rl.clients[ip] = client
	}

	client.count++
	return client.count <= rl.limit
}

// Limit creates a middleware function for rate limiting
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				models.NewErrorResponse("Rate limit exceeded. Please try again later."))
			return
		}

		c.Next()
	}
}

// clientCount returns the number of tracked clients
func (rl *RateLimiter) clientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}
