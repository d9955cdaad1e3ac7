// Package token holds the process-wide OAuth2 client-credentials token for
// the Graph API. The token is cached in memory and refreshed on expiry; it is
// never persisted.
package token

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenEndpointFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	graphScope          = "https://graph.microsoft.com/.default"

	// cacheWindow is 55 minutes: the provider issues 60-minute tokens, the
	// 5-minute margin keeps us from handing out a token that dies mid-use.
	cacheWindow = 55 * time.Minute
)

// AuthError reports a failed credential exchange.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Manager caches a single (token, expiry) pair behind a mutex. Concurrent
// callers during a refresh are serialized so the exchange happens once.
type Manager struct {
	conf clientcredentials.Config

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time
}

// NewManager creates a token manager for the given tenant and client.
func NewManager(tenantID, clientID, clientSecret string) *Manager {
	return &Manager{
		conf: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     fmt.Sprintf(tokenEndpointFormat, tenantID),
			Scopes:       []string{graphScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		now: time.Now,
	}
}

// Token returns the cached access token, performing a client-credentials
// grant when the cache window has passed.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt) {
		return m.token, nil
	}

	tok, err := m.conf.Token(ctx)
	if err != nil {
		return "", &AuthError{Err: err}
	}

	m.token = tok.AccessToken
	m.expiresAt = m.now().Add(cacheWindow)
	log.Printf("acquired graph access token, cached until %s", m.expiresAt.Format(time.RFC3339))
	return m.token, nil
}
