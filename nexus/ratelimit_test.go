package nexus

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateTracker_CollapsesToMinimum(t *testing.T) {
	tracker := NewRateTracker()

	headers := http.Header{}
	headers.Set("x-rl-daily-remaining", "100")
	headers.Set("x-rl-hourly-remaining", "40")
	tracker.Update(headers)

	require.Equal(t, 40, tracker.DailyRemaining())
	require.Equal(t, 40, tracker.HourlyRemaining())

	headers.Set("x-rl-daily-remaining", "10")
	headers.Set("x-rl-hourly-remaining", "99")
	tracker.Update(headers)

	require.Equal(t, 10, tracker.DailyRemaining())
	require.Equal(t, 10, tracker.HourlyRemaining())
}

func TestRateTracker_InitialState(t *testing.T) {
	tracker := NewRateTracker()
	require.Equal(t, 0, tracker.DailyRemaining())
	require.Equal(t, 0, tracker.HourlyRemaining())
}

func TestRateTracker_IgnoresIncompleteHeaders(t *testing.T) {
	tracker := NewRateTracker()

	seed := http.Header{}
	seed.Set("x-rl-daily-remaining", "50")
	seed.Set("x-rl-hourly-remaining", "50")
	tracker.Update(seed)

	tests := []struct {
		name    string
		headers http.Header
	}{
		{"no_headers", http.Header{}},
		{"missing_hourly", http.Header{"X-Rl-Daily-Remaining": {"10"}}},
		{"missing_daily", http.Header{"X-Rl-Hourly-Remaining": {"10"}}},
		{"malformed_daily", http.Header{
			"X-Rl-Daily-Remaining":  {"lots"},
			"X-Rl-Hourly-Remaining": {"10"},
		}},
		{"malformed_hourly", http.Header{
			"X-Rl-Daily-Remaining":  {"10"},
			"X-Rl-Hourly-Remaining": {"plenty"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker.Update(tt.headers)
			require.Equal(t, 50, tracker.DailyRemaining(), "snapshot must survive a bad update")
			require.Equal(t, 50, tracker.HourlyRemaining())
		})
	}
}

func TestRateTracker_ConcurrentUpdates(t *testing.T) {
	tracker := NewRateTracker()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			headers := http.Header{}
			headers.Set("x-rl-daily-remaining", "30")
			headers.Set("x-rl-hourly-remaining", "20")
			tracker.Update(headers)
			tracker.DailyRemaining()
		}()
	}
	wg.Wait()

	require.Equal(t, 20, tracker.DailyRemaining())
	require.Equal(t, 20, tracker.HourlyRemaining())
}
