package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// newFrozenLimiter returns a limiter whose clock only moves when the test advances it.
func newFrozenLimiter(config *Config) (*Limiter, *time.Time) {
	limiter := NewLimiter(config)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newFrozenLimiter(&Config{Enabled: true, Rate: 1, Burst: 5})
	defer limiter.Stop()

	// Should allow requests up to burst
	for i := 0; i < 5; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 5 {
			t.Errorf("Expected limit 5, got %d", rateInfo.Limit)
		}
		if rateInfo.Remaining != 4-i {
			t.Errorf("Expected remaining %d, got %d", 4-i, rateInfo.Remaining)
		}
	}

	// 6th request should be denied
	allowed, rateInfo := limiter.Allow("127.0.0.1")
	if allowed {
		t.Error("Expected 6th request to be denied")
	}
	if rateInfo.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", rateInfo.Remaining)
	}
	if rateInfo.RetryAfter != time.Second {
		t.Errorf("Expected retry after 1s, got %v", rateInfo.RetryAfter)
	}
	if !rateInfo.ResetTime.After(limiter.now()) {
		t.Error("Reset time should be in the future")
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter, now := newFrozenLimiter(&Config{Enabled: true, Rate: 1, Burst: 2})
	defer limiter.Stop()

	limiter.Allow("127.0.0.1")
	limiter.Allow("127.0.0.1")
	if allowed, _ := limiter.Allow("127.0.0.1"); allowed {
		t.Fatal("Expected bucket to be exhausted")
	}

	*now = now.Add(1100 * time.Millisecond)

	if allowed, _ := limiter.Allow("127.0.0.1"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
	if allowed, _ := limiter.Allow("127.0.0.1"); allowed {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter, _ := newFrozenLimiter(&Config{Enabled: true, Rate: 1, Burst: 1})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("10.0.0.1"); !allowed {
		t.Error("Expected first client to be allowed")
	}
	if allowed, _ := limiter.Allow("10.0.0.1"); allowed {
		t.Error("Expected first client to be limited")
	}
	if allowed, _ := limiter.Allow("10.0.0.2"); !allowed {
		t.Error("Expected second client to have its own bucket")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false, Rate: 1, Burst: 1})
	defer limiter.Stop()

	// When disabled, all requests should be allowed
	for i := 0; i < 100; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1")
		if !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
		if rateInfo.Limit != 0 {
			t.Errorf("Expected limit 0 when disabled, got %d", rateInfo.Limit)
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, Rate: 0.001, Burst: 100})
	defer limiter.Stop()

	var wg sync.WaitGroup
	allowedCount := 0
	var mu sync.Mutex

	// Make 200 concurrent requests (should only allow 100)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _ := limiter.Allow("127.0.0.1")
			if allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_CleanupRemovesIdleBuckets(t *testing.T) {
	limiter, now := newFrozenLimiter(&Config{Enabled: true, Rate: 1, Burst: 1, IdleTTL: time.Hour})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1))
	}

	*now = now.Add(2 * time.Hour)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1))
	}

	limiter.cleanupBuckets()

	limiter.mu.Lock()
	remaining := len(limiter.buckets)
	limiter.mu.Unlock()
	if remaining != 5 {
		t.Errorf("Expected 5 buckets after cleanup, got %d", remaining)
	}
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, rateInfo := limiter.Allow("127.0.0.1")
	if !allowed {
		t.Error("Expected request to be allowed with default config")
	}
	if rateInfo.Limit != 5 {
		t.Errorf("Expected default burst 5, got %d", rateInfo.Limit)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(DefaultConfig())
	limiter.Stop()
	limiter.Stop()
}
