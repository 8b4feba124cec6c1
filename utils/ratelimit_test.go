package utils

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTokenBucketLimiter_BasicFunctionality(t *testing.T) {
	limiter := NewTokenBucketLimiter(1000)
	ctx := context.Background()

	// The initial bucket holds one second of tokens.
	start := time.Now()
	if err := limiter.Wait(ctx, 500); err != nil {
		t.Fatalf("First wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, 500); err != nil {
		t.Fatalf("Second wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("Waits within the bucket took too long: %v", elapsed)
	}

	// Bucket exhausted: this wait must block for roughly 100ms.
	start = time.Now()
	if err := limiter.Wait(ctx, 100); err != nil {
		t.Fatalf("Third wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("Third wait was too fast: %v", elapsed)
	}
}

func TestTokenBucketLimiter_NoRateLimit(t *testing.T) {
	limiter := NewTokenBucketLimiter(0)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		start := time.Now()
		if err := limiter.Wait(ctx, 1000000); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
		if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
			t.Fatalf("Wait %d took too long: %v", i, elapsed)
		}
	}
}

func TestTokenBucketLimiter_ContextCancellation(t *testing.T) {
	limiter := NewTokenBucketLimiter(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx, 1000)
	elapsed := time.Since(start)

	if err != context.DeadlineExceeded {
		t.Fatalf("Expected context deadline exceeded, got: %v", err)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("Wait took too long after cancellation: %v", elapsed)
	}
}

func TestTokenBucketLimiter_SetRate(t *testing.T) {
	limiter := NewTokenBucketLimiter(1000)
	ctx := context.Background()

	if err := limiter.Wait(ctx, 1000); err != nil {
		t.Fatalf("Initial wait failed: %v", err)
	}

	limiter.SetRate(10000)
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	if err := limiter.Wait(ctx, 500); err != nil {
		t.Fatalf("Wait failed after rate increase: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Wait took too long after rate increase: %v", elapsed)
	}
}

func TestTokenBucketLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewTokenBucketLimiter(1000000)
	ctx := context.Background()

	const numGoroutines = 10
	const requestsPerGoroutine = 100

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < requestsPerGoroutine; j++ {
				if err := limiter.Wait(ctx, 100); err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}
}

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
		hasError bool
	}{
		{"Empty string", "", 0, false},
		{"Pure number", "1000", 1000, false},
		{"Bytes", "500B", 500, false},
		{"Kilobytes", "5K", 5 * 1024, false},
		{"Kilobytes with B", "5KB", 5 * 1024, false},
		{"Megabytes", "10M", 10 * 1024 * 1024, false},
		{"Gigabytes", "2G", 2 * 1024 * 1024 * 1024, false},
		{"Decimal megabytes", "1.5M", int64(1.5 * 1024 * 1024), false},
		{"With whitespace", "  5M  ", 5 * 1024 * 1024, false},
		{"Lowercase suffix", "5m", 5 * 1024 * 1024, false},
		{"Invalid suffix", "5X", 0, true},
		{"Invalid number", "abcM", 0, true},
		{"Negative number", "-5M", 0, true},
		{"Too short", "M", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseRateLimit(tt.input)

			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for input %q, but got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for input %q: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("For input %q, expected %d, got %d", tt.input, tt.expected, result)
			}
		})
	}
}
