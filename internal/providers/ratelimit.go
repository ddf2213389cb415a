package providers

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket shared by every outbound request to one
// upstream API. The bucket holds at most one minute's worth of tokens.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	windowSeconds     float64

	tokens     float64
	lastUpdate time.Time

	totalConsumed int64
	totalWaited   time.Duration
	last429Time   time.Time
	pausedUntil   time.Time
}

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	TokensAvailable int           `json:"tokens_available"`
	TokensLimit     int           `json:"tokens_limit"`
	Utilization     float64       `json:"utilization"`
	TimeUntilToken  time.Duration `json:"time_until_token"`
	TotalConsumed   int64         `json:"total_consumed"`
	TotalWaited     time.Duration `json:"total_waited"`
	Last429Time     time.Time     `json:"last_429_time,omitempty"`
}

// NewRateLimiter creates a limiter allowing requestsPerMinute.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		windowSeconds:     60.0,
		tokens:            float64(requestsPerMinute),
		lastUpdate:        time.Now(),
	}
}

// NewRateLimiterPerSecond converts a requests-per-second setting.
func NewRateLimiterPerSecond(rps float64) *RateLimiter {
	return NewRateLimiter(int(rps * 60))
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()

		wait := time.Until(r.pausedUntil)
		if wait <= 0 && r.tokens >= 1.0 {
			r.tokens--
			r.totalConsumed++
			r.mu.Unlock()
			return nil
		}
		if wait <= 0 {
			wait = r.timeUntilToken()
		}
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.mu.Lock()
			r.totalWaited += wait
			r.mu.Unlock()
		}
	}
}

// TryConsume takes a token if one is available without blocking.
func (r *RateLimiter) TryConsume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if time.Now().Before(r.pausedUntil) || r.tokens < 1.0 {
		return false
	}
	r.tokens--
	r.totalConsumed++
	return true
}

// Record429 drains the bucket after an upstream 429. When the upstream
// sent Retry-After, no token is handed out before it elapses.
func (r *RateLimiter) Record429(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last429Time = time.Now()
	r.tokens = 0
	if retryAfter > 0 {
		r.pausedUntil = r.last429Time.Add(retryAfter)
	}
}

// Status returns current limiter state.
func (r *RateLimiter) Status() RateLimiterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()

	utilization := 1.0 - (r.tokens / float64(r.requestsPerMinute))
	if utilization < 0 {
		utilization = 0
	}

	var untilToken time.Duration
	if r.tokens < 1.0 {
		untilToken = r.timeUntilToken()
	}

	return RateLimiterStatus{
		TokensAvailable: int(r.tokens),
		TokensLimit:     r.requestsPerMinute,
		Utilization:     utilization,
		TimeUntilToken:  untilToken,
		TotalConsumed:   r.totalConsumed,
		TotalWaited:     r.totalWaited,
		Last429Time:     r.last429Time,
	}
}

// timeUntilToken must be called with the lock held.
func (r *RateLimiter) timeUntilToken() time.Duration {
	refillRate := float64(r.requestsPerMinute) / r.windowSeconds
	return time.Duration((1.0 - r.tokens) / refillRate * float64(time.Second))
}

// refill must be called with the lock held.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastUpdate).Seconds()
	r.lastUpdate = now

	r.tokens += elapsed * float64(r.requestsPerMinute) / r.windowSeconds
	if r.tokens > float64(r.requestsPerMinute) {
		r.tokens = float64(r.requestsPerMinute)
	}
}
