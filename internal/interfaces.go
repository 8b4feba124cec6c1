package internal

import "context"

// Cookie is the minimal view of a browser cookie the client needs
type Cookie struct {
	Name  string
	Value string
}

// Browser is the interactive surface driven during the SSO handshake.
// The client never renders anything itself; a host application supplies
// an implementation backed by an embedded browser or the system one.
type Browser interface {
	// Navigate points the browser at the given URL.
	Navigate(ctx context.Context, url string) error

	// Cookies returns the cookies currently visible for a domain.
	Cookies(ctx context.Context, domain string) ([]Cookie, error)
}

// SecretStore persists the long-lived API secret under a named slot.
// Retrieval of an absent slot returns a NexusError of type ErrSecretNotFound.
// The concrete encryption-at-rest scheme is the implementation's concern.
type SecretStore interface {
	Store(name string, secret string) error
	Retrieve(name string) (string, error)
}

// RateLimiter controls bandwidth usage during downloads
type RateLimiter interface {
	Wait(ctx context.Context, n int) error
	SetRate(bytesPerSecond int64)
}
