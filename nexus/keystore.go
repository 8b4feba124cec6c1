package nexus

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"nexusfetch/internal"
)

// Authenticator obtains a fresh API secret interactively. Implemented by
// SSOAuthenticator; nil when the host application has no browser surface.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
}

// KeyStore resolves the API secret for a client instance. Resolution order:
// environment override, persisted secret slot, interactive handshake. The
// environment value wins over the persisted one but is never written back.
// Concurrent callers share a single acquisition so the browser handshake
// runs at most once per instance.
type KeyStore struct {
	config  *internal.Config
	secrets internal.SecretStore
	auth    Authenticator

	flight singleflight.Group

	mutex  sync.Mutex
	cached string
}

// NewKeyStore creates a key store. auth may be nil if interactive
// acquisition is unavailable; resolution then stops at the persisted slot.
func NewKeyStore(config *internal.Config, secrets internal.SecretStore, auth Authenticator) *KeyStore {
	return &KeyStore{
		config:  config,
		secrets: secrets,
		auth:    auth,
	}
}

// GetOrAcquire returns the API secret, triggering the interactive handshake
// when no persisted or environment secret exists. All concurrent callers
// observe the same result.
func (k *KeyStore) GetOrAcquire(ctx context.Context) (string, error) {
	k.mutex.Lock()
	if k.cached != "" {
		defer k.mutex.Unlock()
		return k.cached, nil
	}
	k.mutex.Unlock()

	result, err, _ := k.flight.Do(k.config.SecretSlot, func() (interface{}, error) {
		secret, err := k.acquire(ctx)
		if err != nil {
			return "", err
		}
		k.mutex.Lock()
		k.cached = secret
		k.mutex.Unlock()
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (k *KeyStore) acquire(ctx context.Context) (string, error) {
	if env := os.Getenv(k.config.APIKeyEnv); env != "" {
		internal.LogDebug("API key sourced from %s", k.config.APIKeyEnv)
		return env, nil
	}

	if k.secrets != nil {
		secret, err := k.secrets.Retrieve(k.config.SecretSlot)
		if err == nil && secret != "" {
			return secret, nil
		}
		if err != nil && !internal.IsType(err, internal.ErrSecretNotFound) {
			// Retrieval failure is treated as absence, not a fatal error.
			internal.LogWarn("Secret store lookup failed: %v", err)
		}
	}

	if k.auth == nil {
		return "", internal.NewNexusError("no API key available and interactive login is not configured", internal.ErrAuthFailed)
	}

	internal.LogInfo("No stored API key, starting interactive Nexus login")
	secret, err := k.auth.Authenticate(ctx)
	if err != nil {
		return "", internal.NewNexusError("interactive login did not produce an API key", internal.ErrAuthFailed).WithCause(err)
	}

	if k.secrets != nil {
		if err := k.secrets.Store(k.config.SecretSlot, secret); err != nil {
			internal.LogWarn("Failed to persist API key: %v", err)
		}
	}
	return secret, nil
}
