package nexus

import (
	"net/http"
	"strconv"
	"sync"

	"nexusfetch/internal"
)

const (
	headerDailyRemaining  = "x-rl-daily-remaining"
	headerHourlyRemaining = "x-rl-hourly-remaining"
)

// RateTracker follows the remaining-request quota the Nexus API reports on
// every response. Both counters expose min(daily, hourly): the API blocks a
// request when either window is exhausted, so the lower bound is the number
// that matters. The original per-window values are not recoverable after the
// collapse.
type RateTracker struct {
	mutex  sync.Mutex
	daily  int
	hourly int
}

// NewRateTracker creates a tracker; both counters read 0 before any update
func NewRateTracker() *RateTracker {
	return &RateTracker{}
}

// Update extracts the quota headers from a response. Missing or malformed
// headers leave the previous snapshot unchanged; a response side-channel must
// never fail the request that produced it.
func (t *RateTracker) Update(headers http.Header) {
	daily, err := strconv.Atoi(headers.Get(headerDailyRemaining))
	if err != nil {
		return
	}
	hourly, err := strconv.Atoi(headers.Get(headerHourlyRemaining))
	if err != nil {
		return
	}

	internal.LogDebug("Nexus requests remaining: %d daily - %d hourly", daily, hourly)

	m := daily
	if hourly < m {
		m = hourly
	}

	t.mutex.Lock()
	t.daily = m
	t.hourly = m
	t.mutex.Unlock()
}

// DailyRemaining returns the last stored daily counter
func (t *RateTracker) DailyRemaining() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.daily
}

// HourlyRemaining returns the last stored hourly counter
func (t *RateTracker) HourlyRemaining() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.hourly
}
