package downloader

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"nexusfetch/internal"
	"nexusfetch/utils"
)

const (
	copyBufferSize  = 32 * 1024
	summaryRounding = 10 * time.Millisecond
)

// Engine streams a resolved download link to disk. Nexus CDN links are
// single-use signed URLs, so the engine makes exactly one request and never
// retries; the caller re-resolves the link if it wants another attempt.
type Engine struct {
	httpClient *http.Client
	limiter    internal.RateLimiter
	fs         *utils.FileOperations
	quiet      bool
}

// NewEngine creates a download engine. limiter may be nil for unlimited
// bandwidth.
func NewEngine(httpClient *http.Client, limiter internal.RateLimiter, quiet bool) *Engine {
	if limiter == nil {
		limiter = utils.NewTokenBucketLimiter(0)
	}
	return &Engine{
		httpClient: httpClient,
		limiter:    limiter,
		fs:         utils.NewFileOperations(),
		quiet:      quiet,
	}
}

// Fetch downloads rawURL into outputPath. Data is staged in a .part file and
// renamed into place only after the stream completes, so outputPath never
// holds a truncated download.
func (e *Engine) Fetch(ctx context.Context, rawURL, outputPath string) (utils.DownloadSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return utils.DownloadSummary{}, internal.NewNexusError("invalid download URL", internal.ErrInvalidInput).WithCause(err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return utils.DownloadSummary{}, internal.NewCancelledError(ctx.Err())
		}
		return utils.DownloadSummary{}, internal.NewNexusError("download request failed", internal.ErrNetwork).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return utils.DownloadSummary{}, internal.NewHTTPStatusError(resp.StatusCode, http.StatusText(resp.StatusCode)).
			WithSuggestion("The link may have expired; resolve a fresh one with --fresh")
	}

	if err := e.fs.EnsureDir(filepath.Dir(outputPath)); err != nil {
		return utils.DownloadSummary{}, internal.NewNexusError("failed to create output directory", internal.ErrDownloadFailed).WithCause(err)
	}

	partPath := outputPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return utils.DownloadSummary{}, internal.NewNexusError("failed to create output file", internal.ErrDownloadFailed).WithCause(err)
	}

	progress := utils.NewProgressTracker(resp.ContentLength, e.quiet)
	if err := e.copyStream(ctx, out, resp.Body, progress); err != nil {
		out.Close()
		os.Remove(partPath)
		progress.Finish(outputPath)
		return utils.DownloadSummary{}, err
	}

	if err := out.Close(); err != nil {
		os.Remove(partPath)
		return utils.DownloadSummary{}, internal.NewNexusError("failed to finalize output file", internal.ErrDownloadFailed).WithCause(err)
	}
	if err := e.fs.AtomicRename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return utils.DownloadSummary{}, internal.NewNexusError("failed to move download into place", internal.ErrDownloadFailed).WithCause(err)
	}

	summary := progress.Finish(filepath.Base(outputPath))
	internal.LogInfo("Downloaded %s (%d bytes in %s)", summary.Filename, summary.TotalBytes, summary.TotalTime.Round(summaryRounding))
	return summary, nil
}

func (e *Engine) copyStream(ctx context.Context, dst io.Writer, src io.Reader, progress *utils.ProgressTracker) error {
	buf := make([]byte, copyBufferSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if err := e.limiter.Wait(ctx, n); err != nil {
				return internal.NewCancelledError(err)
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return internal.NewNexusError("failed to write download data", internal.ErrDownloadFailed).WithCause(err)
			}
			progress.Add(n)
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return internal.NewCancelledError(ctx.Err())
			}
			return internal.NewNexusError("download stream interrupted", internal.ErrNetwork).WithCause(readErr)
		}
	}
}
