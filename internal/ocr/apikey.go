package ocr

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrMissingAPIKey is returned when a request carries no key.
	ErrMissingAPIKey = errors.New("API key required")

	// ErrMalformedAPIKey is returned when a key fails the format check.
	ErrMalformedAPIKey = errors.New("invalid API key format")

	// ErrKeyRateLimited is returned when a key exceeds its window.
	ErrKeyRateLimited = errors.New("API key rate limit exceeded")
)

var keyCharset = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// AuthMethod records how the key was presented.
type AuthMethod string

const (
	AuthHeader AuthMethod = "x-api-key"
	AuthBearer AuthMethod = "bearer"
	AuthNone   AuthMethod = "none"
)

// KeyFromRequest reads X-API-Key, then Authorization: Bearer.
func KeyFromRequest(r *http.Request) (string, AuthMethod) {
	if k := strings.TrimSpace(r.Header.Get("X-API-Key")); k != "" {
		return k, AuthHeader
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		if k := strings.TrimSpace(auth[7:]); k != "" {
			return k, AuthBearer
		}
	}
	return "", AuthNone
}

// ValidateKeyFormat checks length and charset. The key is not verified
// against Mistral here.
func ValidateKeyFormat(key string, minLength int) error {
	if key == "" {
		return ErrMissingAPIKey
	}
	if len(key) < minLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrMalformedAPIKey, minLength)
	}
	if !keyCharset.MatchString(key) {
		return fmt.Errorf("%w: only letters, digits, '-', '_' and '.' are allowed", ErrMalformedAPIKey)
	}
	return nil
}

// KeyHash is a short, stable identifier safe to log.
func KeyHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:8]
}

// KeyLimiter allows n requests per window per key, refilled continuously.
type KeyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyEntry
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

type keyEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyLimiter returns a limiter allowing requests per window. A zero
// request count disables limiting.
func NewKeyLimiter(requests int, window time.Duration) *KeyLimiter {
	kl := &KeyLimiter{limiters: make(map[string]*keyEntry), burst: requests, ttl: 2 * window}
	if requests > 0 && window > 0 {
		kl.limit = rate.Every(window / time.Duration(requests))
	} else {
		kl.limit = rate.Inf
	}
	return kl
}

// Allow consumes one request for key and reports what remains.
func (kl *KeyLimiter) Allow(key string) (remaining int, err error) {
	if kl.limit == rate.Inf {
		return -1, nil
	}
	hash := KeyHash(key)
	now := time.Now()

	kl.mu.Lock()
	e, ok := kl.limiters[hash]
	if !ok {
		e = &keyEntry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.limiters[hash] = e
	}
	e.lastSeen = now
	kl.mu.Unlock()

	if !e.limiter.AllowN(now, 1) {
		return 0, ErrKeyRateLimited
	}
	return int(e.limiter.TokensAt(now)), nil
}

// Remaining reports the requests left for key without consuming one.
func (kl *KeyLimiter) Remaining(key string) int {
	if kl.limit == rate.Inf {
		return -1
	}
	kl.mu.Lock()
	e, ok := kl.limiters[KeyHash(key)]
	kl.mu.Unlock()
	if !ok {
		return kl.burst
	}
	return int(e.limiter.Tokens())
}

// Prune drops keys idle for longer than two windows.
func (kl *KeyLimiter) Prune() {
	cutoff := time.Now().Add(-kl.ttl)
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for k, e := range kl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(kl.limiters, k)
		}
	}
}
