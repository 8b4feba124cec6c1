package nexus

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"nexusfetch/internal"
)

const (
	cookiePollInterval = 500 * time.Millisecond
	relayWriteWait     = 10 * time.Second
	relayReadLimit     = 64 * 1024
)

// SSOAuthenticator drives the interactive single-sign-on handshake: the
// user logs into Nexus in the supplied browser, then authorizes this
// application, and the relay channel delivers the issued API key.
//
// The relay channel is opened only after the login cookie is observed so the
// correlation id is never exposed to an unauthenticated session.
type SSOAuthenticator struct {
	config  *internal.Config
	browser internal.Browser

	// Overridable in tests.
	dialer       *websocket.Dialer
	pollInterval time.Duration
}

// NewSSOAuthenticator creates an authenticator driving the given browser
func NewSSOAuthenticator(config *internal.Config, browser internal.Browser) *SSOAuthenticator {
	return &SSOAuthenticator{
		config:       config,
		browser:      browser,
		dialer:       websocket.DefaultDialer,
		pollInterval: cookiePollInterval,
	}
}

// Authenticate runs the handshake to completion and returns the issued API
// key. Cancelling ctx at any point stops the cookie poll, closes any open
// relay channel and fails with a Cancelled error.
func (s *SSOAuthenticator) Authenticate(ctx context.Context) (string, error) {
	// Phase 1: wait for the user to log in.
	if err := s.browser.Navigate(ctx, s.config.LoginURL); err != nil {
		return "", internal.NewNexusError("browser navigation to login page failed", internal.ErrAuthFailed).WithCause(err)
	}
	if err := s.waitForSessionCookie(ctx); err != nil {
		return "", err
	}

	// Phase 2: relay handshake.
	correlation := uuid.New().String()

	conn, _, err := s.dialer.DialContext(ctx, s.config.SSORelayURL, nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", internal.NewCancelledError(ctx.Err())
		}
		return "", internal.NewNexusError("failed to open SSO relay channel", internal.ErrNetwork).WithCause(err)
	}
	defer conn.Close()
	conn.SetReadLimit(relayReadLimit)

	registration := map[string]string{
		"id":    correlation,
		"appid": s.config.AppName,
	}
	conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
	if err := conn.WriteJSON(registration); err != nil {
		return "", internal.NewNexusError("failed to register with SSO relay", internal.ErrNetwork).WithCause(err)
	}

	consentURL := fmt.Sprintf("%s?id=%s&application=%s",
		s.config.ConsentURL, correlation, url.QueryEscape(s.config.AppName))
	if err := s.browser.Navigate(ctx, consentURL); err != nil {
		return "", internal.NewNexusError("browser navigation to consent page failed", internal.ErrAuthFailed).WithCause(err)
	}

	internal.LogInfo("Waiting for the user to authorize %s", s.config.AppName)
	return s.awaitSecret(ctx, conn)
}

// waitForSessionCookie polls the browser until the Nexus session cookie
// appears on the provider domain
func (s *SSOAuthenticator) waitForSessionCookie(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		cookies, err := s.browser.Cookies(ctx, s.config.CookieDomain)
		if err == nil {
			for _, cookie := range cookies {
				if cookie.Name == s.config.CookieName {
					internal.LogDebug("Session cookie observed, proceeding to relay handshake")
					return nil
				}
			}
		} else {
			internal.LogDebug("Cookie poll failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return internal.NewCancelledError(ctx.Err())
		case <-ticker.C:
		}
	}
}

// awaitSecret waits for exactly one inbound relay message carrying the key
func (s *SSOAuthenticator) awaitSecret(ctx context.Context, conn *websocket.Conn) (string, error) {
	type readResult struct {
		data []byte
		err  error
	}
	results := make(chan readResult, 1)

	go func() {
		_, data, err := conn.ReadMessage()
		results <- readResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		// Closing the connection unblocks the pending read so the
		// goroutine exits with it.
		conn.Close()
		<-results
		return "", internal.NewCancelledError(ctx.Err())
	case result := <-results:
		if result.err != nil {
			if ctx.Err() != nil {
				return "", internal.NewCancelledError(ctx.Err())
			}
			return "", internal.NewNexusError("SSO relay closed before delivering a key", internal.ErrNetwork).WithCause(result.err)
		}
		secret := strings.TrimSpace(string(result.data))
		if secret == "" {
			return "", internal.NewNexusError("SSO relay delivered an empty key", internal.ErrAuthFailed)
		}
		return secret, nil
	}
}
