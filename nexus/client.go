package nexus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nexusfetch/internal"
	"nexusfetch/utils"
)

const linkCacheTTL = 24 * time.Hour

// Client is the authenticated Nexus API client: it owns the default header
// set, the rate tracker fed from response headers, the edge cache routing for
// idempotent reads, and the disk cache for resolved download links.
type Client struct {
	config     *internal.Config
	httpClient *http.Client
	headers    map[string]string

	tracker *RateTracker
	edge    *EdgeResolver
	links   *LinkCache

	statusFlight singleflight.Group
	statusMutex  sync.Mutex
	statusDone   bool
	status       internal.UserStatus
	statusErr    error
}

// NewClient resolves the API key through the key store and builds a client
func NewClient(ctx context.Context, config *internal.Config, keys *KeyStore) (*Client, error) {
	apiKey, err := keys.GetOrAcquire(ctx)
	if err != nil {
		return nil, err
	}

	httpClient, err := utils.NewHTTPClient(&utils.HTTPClientConfig{
		Timeout:  time.Duration(config.TimeoutSeconds) * time.Second,
		ProxyURL: config.ProxyURL,
	})
	if err != nil {
		return nil, internal.NewNexusError("failed to build HTTP client", internal.ErrInvalidInput).WithCause(err)
	}

	return NewClientWithKey(config, apiKey, httpClient), nil
}

// NewClientWithKey builds a client around an already-resolved API key.
// The default headers are fixed here and applied to every request.
func NewClientWithKey(config *internal.Config, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		config:     config,
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent":          config.UserAgent,
			"apikey":              apiKey,
			"Accept":              "application/json",
			"Application-Name":    config.AppName,
			"Application-Version": config.AppVersion,
		},
		tracker: NewRateTracker(),
		edge:    NewEdgeResolver(config),
		links:   NewLinkCache(config.CacheDir, linkCacheTTL),
	}
}

// DailyRemaining returns the tracked daily request quota
func (c *Client) DailyRemaining() int { return c.tracker.DailyRemaining() }

// HourlyRemaining returns the tracked hourly request quota
func (c *Client) HourlyRemaining() int { return c.tracker.HourlyRemaining() }

func (c *Client) apiURL(format string, args ...interface{}) string {
	return c.config.APIBase + fmt.Sprintf(format, args...)
}

// do issues a request with the fixed header set, feeds the rate tracker
// from the response headers and converts non-success statuses into typed
// errors. Callers own the returned body.
func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, internal.NewNexusError("failed to build request", internal.ErrInvalidInput).WithCause(err)
	}
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, internal.NewCancelledError(ctx.Err())
		}
		return nil, internal.NewNexusError("request failed", internal.ErrNetwork).WithCause(err)
	}

	// Headers are available before the body is consumed; the quota update
	// happens even when the status is an error.
	c.tracker.Update(resp.Header)
	internal.GetLogger().LogHTTPResponse(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, internal.NewHTTPStatusError(resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}

// GetJSON issues an authenticated GET and decodes the JSON body into T
func GetJSON[T any](ctx context.Context, c *Client, rawURL string) (T, error) {
	var out T
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		var zero T
		return zero, internal.NewDecodeError(err)
	}
	return out, nil
}

// PostForm issues an authenticated POST with URL-encoded form fields and
// decodes the JSON body into T
func PostForm[T any](ctx context.Context, c *Client, rawURL string, fields url.Values) (T, error) {
	var out T
	resp, err := c.do(ctx, http.MethodPost, rawURL, strings.NewReader(fields.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		var zero T
		return zero, internal.NewDecodeError(err)
	}
	return out, nil
}

// UserStatus validates the API key and returns the account details. The
// result is computed at most once per client; concurrent callers share the
// in-flight request and later callers get the memoized result.
func (c *Client) UserStatus(ctx context.Context) (internal.UserStatus, error) {
	c.statusMutex.Lock()
	if c.statusDone {
		defer c.statusMutex.Unlock()
		return c.status, c.statusErr
	}
	c.statusMutex.Unlock()

	result, err, _ := c.statusFlight.Do("user-status", func() (interface{}, error) {
		status, err := GetJSON[internal.UserStatus](ctx, c, c.apiURL("/v1/users/validate.json"))

		c.statusMutex.Lock()
		c.status = status
		c.statusErr = err
		c.statusDone = true
		c.statusMutex.Unlock()

		return status, err
	})
	if err != nil {
		return internal.UserStatus{}, err
	}
	return result.(internal.UserStatus), nil
}

// IsPremium reports whether the authenticated account has premium access
func (c *Client) IsPremium(ctx context.Context) (bool, error) {
	status, err := c.UserStatus(ctx)
	if err != nil {
		return false, err
	}
	return status.IsPremium, nil
}

// Username returns the authenticated account name
func (c *Client) Username(ctx context.Context) (string, error) {
	status, err := c.UserStatus(ctx)
	if err != nil {
		return "", err
	}
	return status.Name, nil
}

// FileInfo returns the metadata of a single mod file
func (c *Client) FileInfo(ctx context.Context, id internal.ModFileID) (internal.FileInfo, error) {
	if err := id.Validate(); err != nil {
		return internal.FileInfo{}, err
	}
	reqURL := c.apiURL("/v1/games/%s/mods/%d/files/%d.json",
		internal.NormalizeGameName(id.Game), id.ModID, id.FileID)
	return GetCached[internal.FileInfo](ctx, c, reqURL)
}

// ModFiles lists all files of a mod. A null file list from the provider is
// surfaced as an EmptyResult error.
func (c *Client) ModFiles(ctx context.Context, game string, modID int64) (internal.ModFilesResponse, error) {
	reqURL := c.apiURL("/v1/games/%s/mods/%d/files.json", internal.NormalizeGameName(game), modID)
	result, err := GetCached[internal.ModFilesResponse](ctx, c, reqURL)
	if err != nil {
		return internal.ModFilesResponse{}, err
	}
	if result.Files == nil {
		return internal.ModFilesResponse{}, internal.NewNexusError(
			fmt.Sprintf("Nexus returned no file list for %s mod %d", game, modID), internal.ErrEmptyResult)
	}
	return result, nil
}

// ModInfoByHash searches mods by the MD5 hash of an archive
func (c *Client) ModInfoByHash(ctx context.Context, game, md5 string) ([]internal.MD5Response, error) {
	reqURL := c.apiURL("/v1/games/%s/mods/md5_search/%s.json", internal.NormalizeGameName(game), md5)
	return GetCached[[]internal.MD5Response](ctx, c, reqURL)
}

// ModInfo returns a mod's metadata
func (c *Client) ModInfo(ctx context.Context, game string, modID int64) (internal.ModInfo, error) {
	reqURL := c.apiURL("/v1/games/%s/mods/%d.json", internal.NormalizeGameName(game), modID)
	return GetCached[internal.ModInfo](ctx, c, reqURL)
}

// Endorse submits an endorsement for a mod. Always a direct origin call.
func (c *Client) Endorse(ctx context.Context, game string, modID int64, version string) (internal.EndorsementResponse, error) {
	endorseURL := c.apiURL("/v1/games/%s/mods/%d/endorse.json",
		internal.NormalizeGameName(game), modID)
	fields := url.Values{"version": {version}}
	return PostForm[internal.EndorsementResponse](ctx, c, endorseURL, fields)
}

// DownloadLink resolves the download URL for a mod file. With useCache set,
// a disk entry younger than 24h short-circuits the network call; resolution
// itself always goes to the origin host, never the edge cache, because a
// stale signed link is worse than an extra request.
func (c *Client) DownloadLink(ctx context.Context, id internal.ModFileID, useCache bool) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	if useCache {
		return c.links.Resolve(ctx, id, false, c.resolveDownloadLink)
	}
	return c.resolveDownloadLink(ctx, id)
}

func (c *Client) resolveDownloadLink(ctx context.Context, id internal.ModFileID) (string, error) {
	reqURL := c.apiURL("/v1/games/%s/mods/%d/files/%d/download_link.json",
		internal.NormalizeGameName(id.Game), id.ModID, id.FileID)
	links, err := GetJSON[[]internal.DownloadLink](ctx, c, reqURL)
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "", internal.NewNexusError(
			fmt.Sprintf("Nexus returned no download links for %s", id), internal.ErrEmptyResult)
	}
	return links[0].URI, nil
}
