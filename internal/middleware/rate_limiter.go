package middleware

import (
	"net/http"
	"sync"
	"time"

	"evot/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

// ipEntry tracks requests per IP within a fixed window.
type ipEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

type ipLimiter struct {
	name   string
	limit  int
	window time.Duration
	msg    string
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*ipEntry
	purge   sync.Once
}

func newIPLimiter(name string, limit int, window time.Duration, msg string) *ipLimiter {
	return &ipLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		msg:     msg,
		now:     time.Now,
		entries: make(map[string]*ipEntry),
	}
}

// allow counts one request for ip and reports whether it is within the limit,
// together with the end of the current window.
func (l *ipLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	entry, exists := l.entries[ip]
	if !exists {
		entry = &ipEntry{}
		l.entries[ip] = entry
	}
	l.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := l.now()
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(l.window)
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

func (l *ipLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		l.purge.Do(func() { go l.purgeLoop() })

		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.msg))
			return
		}
		c.Next()
	}
}

// purgeLoop drops expired entries so IPs that never return do not pile up.
func (l *ipLimiter) purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := l.now()
		l.mu.Lock()
		purged := 0
		for ip, entry := range l.entries {
			entry.mu.Lock()
			if now.After(entry.windowEnd) {
				delete(l.entries, ip)
				purged++
			}
			entry.mu.Unlock()
		}
		remaining := len(l.entries)
		l.mu.Unlock()

		if purged > 0 {
			log.Debug().
				Str("limiter", l.name).
				Int("purged", purged).
				Int("remaining", remaining).
				Msg("rate limiter entries purged")
		}
	}
}

// LoginRateLimiter limits login attempts per IP per minute.
func LoginRateLimiter(perMinute int) gin.HandlerFunc {
	return newIPLimiter("login", perMinute, time.Minute, "Demasiados intentos de login. Intente en 1 minuto.").handler()
}

// RateLimiter is the general per-IP limiter applied to every route.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newIPLimiter("api", limit, window, "Demasiadas solicitudes. Intente nuevamente en un momento.").handler()
}
