package utils

import (
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// ProgressTracker manages download progress display
type ProgressTracker struct {
	bar       *pb.ProgressBar
	quiet     bool
	startTime time.Time
	total     int64
	current   int64
	mutex     sync.Mutex
}

// DownloadSummary contains final download statistics
type DownloadSummary struct {
	TotalBytes   int64
	TotalTime    time.Duration
	AverageSpeed float64 // bytes per second
	Filename     string
}

// NewProgressTracker creates a new progress tracker. With quiet set, no bar
// is rendered but byte accounting still works.
func NewProgressTracker(total int64, quiet bool) *ProgressTracker {
	tracker := &ProgressTracker{
		quiet:     quiet,
		startTime: time.Now(),
		total:     total,
	}

	if !quiet {
		tmpl := `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}`
		bar := pb.ProgressBarTemplate(tmpl).Start64(total)
		bar.Set(pb.Bytes, true)
		bar.Set(pb.SIBytesPrefix, true)
		bar.Set("prefix", "Downloading: ")
		tracker.bar = bar
	}

	return tracker
}

// Add advances the progress by n bytes
func (p *ProgressTracker) Add(n int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current += int64(n)
	if p.bar != nil {
		p.bar.SetCurrent(p.current)
	}
}

// Current returns the number of bytes accounted so far
func (p *ProgressTracker) Current() int64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current
}

// Finish stops the bar and returns the final statistics
func (p *ProgressTracker) Finish(filename string) DownloadSummary {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.bar != nil {
		p.bar.Finish()
	}

	elapsed := time.Since(p.startTime)
	avg := 0.0
	if elapsed > 0 {
		avg = float64(p.current) / elapsed.Seconds()
	}

	return DownloadSummary{
		TotalBytes:   p.current,
		TotalTime:    elapsed,
		AverageSpeed: avg,
		Filename:     filename,
	}
}
