package http

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"sm-portal/internal/auth"
)

const (
	sessionKey         = "adminSession"
	renewedTokenHeader = "X-Session-Token"
)

// sessionMiddleware attaches the live admin session, if any, to the request.
// It never rejects; routes that need an admin add requireAdmin.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(h.opts.CookieName)
		}
		if token != "" {
			if session, err := h.admins.ResolveToken(c.Request.Context(), token); err == nil {
				c.Set(sessionKey, session)
				if renewed, ok := h.admins.RenewToken(c.Request.Context(), token); ok {
					h.setSessionCookie(c, renewed, int(h.opts.SessionTTL.Seconds()))
					c.Header(renewedTokenHeader, renewed)
				}
			}
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*auth.Session)
	return session
}

func isAdmin(c *gin.Context) bool {
	return currentSession(c) != nil
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// rateLimiter keeps one token bucket per client key.
type rateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	limit       rate.Limit
	burst       int
	perMinute   int
	lastCleanup time.Time
}

func newRateLimiter(perMinute, burst int) *rateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &rateLimiter{
		limiters:    make(map[string]*rate.Limiter),
		limit:       rate.Limit(float64(perMinute) / 60),
		burst:       burst,
		perMinute:   perMinute,
		lastCleanup: time.Now(),
	}
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) >= 5*time.Minute {
		rl.lastCleanup = time.Now()
		for k, l := range rl.limiters {
			// a full bucket means the key has been idle
			if l.Tokens() >= float64(rl.burst) {
				delete(rl.limiters, k)
			}
		}
	}

	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

func (h *Handler) rateLimit(rl *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		limiter := rl.get(c.ClientIP())
		if !limiter.Allow() {
			reservation := limiter.Reserve()
			delay := reservation.Delay()
			reservation.Cancel()

			retryAfter := max(int(delay.Seconds()), 1)
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.perMinute))
			h.logger.WithFields(logrus.Fields{
				"client": c.ClientIP(),
				"path":   c.Request.URL.Path,
			}).Warn("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}
