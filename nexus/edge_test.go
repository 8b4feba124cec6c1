package nexus

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"nexusfetch/internal"
)

// deadEndpoint returns a host and port with nothing listening on it
func deadEndpoint(t *testing.T) (string, int) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	listener.Close()
	return addr.IP.String(), addr.Port
}

func TestEdgeResolver_Rewrite(t *testing.T) {
	config := internal.DefaultConfig()
	edge := NewEdgeResolver(config)

	rewritten, err := edge.Rewrite("https://api.nexusmods.com/v1/games/fallout4/mods/42.json")
	require.NoError(t, err)
	require.Equal(t, "http://build.wabbajack.org/v1/games/fallout4/mods/42.json", rewritten)
}

func TestGetCached_FallsBackToOrigin(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"mod_id":42,"name":"Found"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	host, port := deadEndpoint(t)
	client.edge = &EdgeResolver{scheme: "http", host: host, port: port}

	mod, err := client.ModInfo(context.Background(), "fallout4", 42)
	require.NoError(t, err)
	require.Equal(t, "Found", mod.Name)
	require.Equal(t, int32(1), requests.Load(), "origin handles the request when the edge is down")
}

func TestGetCached_SurfacesOriginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	host, port := deadEndpoint(t)
	client.edge = &EdgeResolver{scheme: "http", host: host, port: port}

	_, err := client.ModInfo(context.Background(), "fallout4", 42)
	require.Error(t, err)

	// The surfaced error is the origin's, not the edge connection failure.
	var nexusErr *internal.NexusError
	require.ErrorAs(t, err, &nexusErr)
	require.Equal(t, internal.ErrHTTPStatus, nexusErr.Type)
	require.Equal(t, 500, nexusErr.Code)
}

func TestGetCached_NoFallbackOnCancellation(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ModInfo(ctx, "fallout4", 42)
	require.Error(t, err)
	require.True(t, internal.IsType(err, internal.ErrCancelled))
	require.Zero(t, requests.Load(), "a dead context must not trigger an origin retry")
}

func TestShouldFallback(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback bool
	}{
		{"http_status", internal.NewHTTPStatusError(502, "Bad Gateway"), true},
		{"decode", internal.NewDecodeError(errors.New("bad json")), true},
		{"network", internal.NewNexusError("refused", internal.ErrNetwork), true},
		{"cancelled", internal.NewCancelledError(context.Canceled), false},
		{"context_canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"auth", internal.NewNexusError("bad key", internal.ErrAuthFailed), false},
		{"invalid_input", internal.NewNexusError("bad id", internal.ErrInvalidInput), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.fallback, shouldFallback(tt.err))
		})
	}
}
