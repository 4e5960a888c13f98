package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/charlesng35/taskflow/pkg/errors"
	"github.com/charlesng35/taskflow/pkg/response"
)

const throttleIdleTTL = 10 * time.Minute

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle applies a token bucket per client IP across all routes. It smooths bursts
// before requests reach the per-route RateLimit counters.
func Throttle(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 || burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu        sync.Mutex
		clients   = make(map[string]*throttleEntry)
		lastSweep = time.Now()
	)

	limiterFor := func(ip string, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if now.Sub(lastSweep) > throttleIdleTTL {
			for key, entry := range clients {
				if now.Sub(entry.lastSeen) > throttleIdleTTL {
					delete(clients, key)
				}
			}
			lastSweep = now
		}

		entry, ok := clients[ip]
		if !ok {
			entry = &throttleEntry{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
			clients[ip] = entry
		}
		entry.lastSeen = now
		return entry.limiter
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP(), time.Now()).Allow() {
			c.Header("Retry-After", "1")
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}
