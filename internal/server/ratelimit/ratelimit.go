// Package ratelimit provides per-client request limiting backed by token buckets.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	// Rate is the sustained number of requests per second allowed per client
	Rate float64
	// Burst is the bucket capacity
	Burst           int
	CleanupInterval time.Duration
	// IdleTTL is how long an unused client bucket is kept
	IdleTTL time.Duration
}

// DefaultConfig returns one request per second with a burst of five.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Rate:            1,
		Burst:           5,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
	}
}

type clientBucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter manages rate limiting for multiple clients.
type Limiter struct {
	config        *Config
	mu            sync.Mutex
	buckets       map[string]*clientBucket
	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
	now           func() time.Time
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	limiter := &Limiter{
		config:  config,
		buckets: make(map[string]*clientBucket),
		now:     time.Now,
	}

	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanup()
	}

	return limiter
}

// Allow consumes a token for clientID if one is available.
func (l *Limiter) Allow(clientID string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}

	now := l.now()
	bucket := l.getBucket(clientID, now)

	allowed := bucket.AllowN(now, 1)
	tokens := bucket.TokensAt(now)

	info := Info{
		Allowed:   allowed,
		Limit:     l.config.Burst,
		Remaining: max(0, int(math.Floor(tokens))),
		ResetTime: now.Add(l.refillDuration(float64(l.config.Burst) - tokens)),
	}
	if !allowed {
		info.RetryAfter = l.refillDuration(1 - tokens)
	}
	return allowed, info
}

// refillDuration returns how long it takes to accumulate n tokens.
func (l *Limiter) refillDuration(n float64) time.Duration {
	if n <= 0 || l.config.Rate <= 0 {
		return 0
	}
	return time.Duration(n / l.config.Rate * float64(time.Second))
}

func (l *Limiter) getBucket(clientID string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[clientID]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rate.Limit(l.config.Rate), l.config.Burst)}
		l.buckets[clientID] = bucket
	}
	bucket.lastAccess = now
	return bucket.limiter
}

// cleanup removes idle buckets until Stop is called.
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupBuckets()
		case <-l.cleanupStop:
			return
		}
	}
}

func (l *Limiter) cleanupBuckets() {
	cutoff := l.now().Add(-l.config.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, bucket := range l.buckets {
		if bucket.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}
