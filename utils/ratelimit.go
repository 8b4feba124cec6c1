package utils

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"nexusfetch/internal"
)

// TokenBucketLimiter implements bandwidth limiting using a token bucket.
// A zero or negative rate disables limiting entirely.
type TokenBucketLimiter struct {
	rate       int64
	bucket     int64
	maxBucket  int64
	lastUpdate time.Time
	mutex      sync.Mutex
}

// NewTokenBucketLimiter creates a new rate limiter
func NewTokenBucketLimiter(bytesPerSecond int64) internal.RateLimiter {
	return &TokenBucketLimiter{
		rate:       bytesPerSecond,
		bucket:     bytesPerSecond,
		maxBucket:  bytesPerSecond,
		lastUpdate: time.Now(),
	}
}

// Wait blocks until the specified number of bytes can be consumed
func (r *TokenBucketLimiter) Wait(ctx context.Context, n int) error {
	r.mutex.Lock()
	if r.rate <= 0 {
		r.mutex.Unlock()
		return nil
	}

	// Refill tokens based on elapsed time
	now := time.Now()
	elapsed := now.Sub(r.lastUpdate)
	r.lastUpdate = now

	r.bucket += int64(elapsed.Seconds() * float64(r.rate))
	if r.bucket > r.maxBucket {
		r.bucket = r.maxBucket
	}

	needed := int64(n)
	if r.bucket >= needed {
		r.bucket -= needed
		r.mutex.Unlock()
		return nil
	}

	deficit := needed - r.bucket
	waitTime := time.Duration(float64(deficit) / float64(r.rate) * float64(time.Second))
	r.bucket = 0
	r.mutex.Unlock()

	select {
	case <-time.After(waitTime):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetRate updates the rate limit
func (r *TokenBucketLimiter) SetRate(bytesPerSecond int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.rate = bytesPerSecond
	r.maxBucket = bytesPerSecond
	if r.bucket > r.maxBucket {
		r.bucket = r.maxBucket
	}
}

// ParseRateLimit parses human-readable rate limit strings (e.g., "5M", "1G")
func ParseRateLimit(rateStr string) (int64, error) {
	rateStr = strings.TrimSpace(rateStr)
	if rateStr == "" {
		return 0, nil
	}

	// Handle pure numbers (bytes per second)
	if val, err := strconv.ParseInt(rateStr, 10, 64); err == nil {
		return val, nil
	}

	if len(rateStr) < 2 {
		return 0, fmt.Errorf("invalid rate format: %s", rateStr)
	}

	var numStr, suffix string
	rateUpper := strings.ToUpper(rateStr)

	// Check for 2-character suffixes first (KB, MB, GB, TB)
	if len(rateUpper) >= 3 && (strings.HasSuffix(rateUpper, "KB") ||
		strings.HasSuffix(rateUpper, "MB") ||
		strings.HasSuffix(rateUpper, "GB") ||
		strings.HasSuffix(rateUpper, "TB")) {
		numStr = rateStr[:len(rateStr)-2]
		suffix = rateUpper[len(rateUpper)-2:]
	} else {
		numStr = rateStr[:len(rateStr)-1]
		suffix = rateUpper[len(rateUpper)-1:]
	}

	baseValue, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value in rate: %s", numStr)
	}
	if baseValue < 0 {
		return 0, fmt.Errorf("rate cannot be negative: %f", baseValue)
	}

	var multiplier int64
	switch suffix {
	case "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	case "T", "TB":
		multiplier = 1024 * 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported rate suffix: %s (supported: B, K/KB, M/MB, G/GB, T/TB)", suffix)
	}

	result := int64(baseValue * float64(multiplier))
	if result < 0 {
		return 0, fmt.Errorf("rate value overflow")
	}

	return result, nil
}
