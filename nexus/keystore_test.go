package nexus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nexusfetch/internal"
)

type memorySecretStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

func newMemorySecretStore() *memorySecretStore {
	return &memorySecretStore{secrets: make(map[string]string)}
}

func (m *memorySecretStore) Store(name, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[name] = secret
	return nil
}

func (m *memorySecretStore) Retrieve(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	secret, ok := m.secrets[name]
	if !ok {
		return "", internal.NewNexusError("no secret stored under "+name, internal.ErrSecretNotFound)
	}
	return secret, nil
}

type countingAuthenticator struct {
	calls  atomic.Int32
	delay  time.Duration
	secret string
	err    error
}

func (c *countingAuthenticator) Authenticate(ctx context.Context) (string, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", internal.NewCancelledError(ctx.Err())
		}
	}
	return c.secret, c.err
}

func TestKeyStore_EnvironmentOverride(t *testing.T) {
	t.Setenv("NEXUSAPIKEY", "env-key")

	secrets := newMemorySecretStore()
	require.NoError(t, secrets.Store("nexusapikey", "stored-key"))

	auth := &countingAuthenticator{secret: "fresh-key"}
	keys := NewKeyStore(internal.DefaultConfig(), secrets, auth)

	secret, err := keys.GetOrAcquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "env-key", secret)
	require.Zero(t, auth.calls.Load(), "interactive login must not run with an env key present")

	// The environment value must never be written back to the store.
	stored, err := secrets.Retrieve("nexusapikey")
	require.NoError(t, err)
	require.Equal(t, "stored-key", stored)
}

func TestKeyStore_PersistedSecret(t *testing.T) {
	t.Setenv("NEXUSAPIKEY", "")
	secrets := newMemorySecretStore()
	require.NoError(t, secrets.Store("nexusapikey", "stored-key"))

	auth := &countingAuthenticator{secret: "fresh-key"}
	keys := NewKeyStore(internal.DefaultConfig(), secrets, auth)

	secret, err := keys.GetOrAcquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "stored-key", secret)
	require.Zero(t, auth.calls.Load())
}

func TestKeyStore_InteractiveFallbackPersists(t *testing.T) {
	t.Setenv("NEXUSAPIKEY", "")
	secrets := newMemorySecretStore()
	auth := &countingAuthenticator{secret: "fresh-key"}
	keys := NewKeyStore(internal.DefaultConfig(), secrets, auth)

	secret, err := keys.GetOrAcquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh-key", secret)
	require.Equal(t, int32(1), auth.calls.Load())

	stored, err := secrets.Retrieve("nexusapikey")
	require.NoError(t, err)
	require.Equal(t, "fresh-key", stored, "interactive key must be persisted")
}

func TestKeyStore_ConcurrentAcquisitionRunsOnce(t *testing.T) {
	t.Setenv("NEXUSAPIKEY", "")
	secrets := newMemorySecretStore()
	auth := &countingAuthenticator{secret: "fresh-key", delay: 50 * time.Millisecond}
	keys := NewKeyStore(internal.DefaultConfig(), secrets, auth)

	const callers = 10
	results := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = keys.GetOrAcquire(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "fresh-key", results[i])
	}
	require.Equal(t, int32(1), auth.calls.Load(), "handshake must run at most once")

	// Subsequent calls hit the in-memory cache.
	secret, err := keys.GetOrAcquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh-key", secret)
	require.Equal(t, int32(1), auth.calls.Load())
}

func TestKeyStore_NoSourcesAvailable(t *testing.T) {
	t.Setenv("NEXUSAPIKEY", "")
	keys := NewKeyStore(internal.DefaultConfig(), newMemorySecretStore(), nil)

	_, err := keys.GetOrAcquire(context.Background())
	require.Error(t, err)
	require.True(t, internal.IsType(err, internal.ErrAuthFailed))
}

func TestKeyStore_AuthenticatorFailure(t *testing.T) {
	t.Setenv("NEXUSAPIKEY", "")
	auth := &countingAuthenticator{err: internal.NewNexusError("relay closed", internal.ErrNetwork)}
	keys := NewKeyStore(internal.DefaultConfig(), newMemorySecretStore(), auth)

	_, err := keys.GetOrAcquire(context.Background())
	require.Error(t, err)
	require.True(t, internal.IsType(err, internal.ErrAuthFailed), "handshake failures surface as auth errors")

	// A failed acquisition must not be cached.
	auth.err = nil
	auth.secret = "second-try"
	secret, err := keys.GetOrAcquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, "second-try", secret)
}
