package nexus

import (
	"context"
	"errors"

	"nexusfetch/internal"
	"nexusfetch/utils"
)

// EdgeResolver routes idempotent metadata reads through a shared edge cache
// host to conserve the per-account API quota. The authenticated origin stays
// the fallback: an edge failure is retried once against the original URL and
// only the origin outcome is surfaced.
type EdgeResolver struct {
	scheme string
	host   string
	port   int
}

// NewEdgeResolver builds a resolver from the configured edge endpoint
func NewEdgeResolver(config *internal.Config) *EdgeResolver {
	return &EdgeResolver{
		scheme: config.EdgeScheme,
		host:   config.EdgeHost,
		port:   config.EdgePort,
	}
}

// Rewrite maps an origin API URL onto the edge cache host, keeping the path
// and query intact
func (e *EdgeResolver) Rewrite(rawURL string) (string, error) {
	return utils.RewriteHost(rawURL, e.scheme, e.host, e.port)
}

// GetCached fetches rawURL through the edge cache, falling back to the origin
// when the edge attempt fails for a reason a direct call could survive.
func GetCached[T any](ctx context.Context, c *Client, rawURL string) (T, error) {
	edgeURL, err := c.edge.Rewrite(rawURL)
	if err != nil {
		// An unparseable URL would fail against the origin too.
		var zero T
		return zero, internal.NewNexusError("failed to rewrite URL for edge cache", internal.ErrInvalidInput).WithCause(err)
	}

	result, err := GetJSON[T](ctx, c, edgeURL)
	if err == nil {
		return result, nil
	}
	if !shouldFallback(err) {
		var zero T
		return zero, err
	}

	internal.LogDebug("Edge cache request failed (%v), retrying against origin", err)
	return GetJSON[T](ctx, c, rawURL)
}

// shouldFallback decides whether an edge failure warrants an origin retry.
// Cancellation never does: the caller gave up, and the origin call would
// inherit the same dead context.
func shouldFallback(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if internal.IsType(err, internal.ErrCancelled) {
		return false
	}
	return internal.IsType(err, internal.ErrHTTPStatus) ||
		internal.IsType(err, internal.ErrDecode) ||
		internal.IsType(err, internal.ErrNetwork)
}
