package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Brianwan04/PixBackend/constant"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit enforces a per-IP request budget over the configured window.
// Idle limiter entries are dropped after three windows; the janitor
// goroutine stops when ctx is canceled.
func RateLimit(ctx context.Context) gin.HandlerFunc {
	window := time.Duration(constant.RateLimitWindowSeconds) * time.Second
	limit := rate.Limit(float64(constant.RateLimitMax) / window.Seconds())
	burst := constant.RateLimitMax

	var mu sync.Mutex
	clients := make(map[string]*clientLimiter)

	ticker := time.NewTicker(window)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mu.Lock()
				for ip, client := range clients {
					if time.Since(client.lastSeen) > 3*window {
						delete(clients, ip)
					}
				}
				mu.Unlock()
			}
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		client, ok := clients[ip]
		if !ok {
			client = &clientLimiter{limiter: rate.NewLimiter(limit, burst)}
			clients[ip] = client
		}
		client.lastSeen = time.Now()
		allowed := client.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests from this IP, please try again later.",
			})
			return
		}
		c.Next()
	}
}
