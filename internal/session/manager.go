package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

// Store persists login material between runs.
type Store interface {
	Load() (models.Credentials, error)
	SaveCookie(cookie string) error
}

// Auth source labels reported by the manager.
const (
	SourceCookie      = "cookie"
	SourceCredentials = "credentials"
	SourceManual      = "manual"
)

// Manager caches the authenticated session and recovers it on demand:
// stored cookie first, then a credential login whose fresh cookie is
// persisted for the next run.
type Manager struct {
	auth   *Authenticator
	store  Store
	logger zerolog.Logger

	mu     sync.Mutex
	cookie string
	source string
}

// NewManager wires the authenticator to its credential store.
func NewManager(auth *Authenticator, store Store, logger zerolog.Logger) *Manager {
	return &Manager{
		auth:   auth,
		store:  store,
		logger: logger.With().Str("component", "session_manager").Logger(),
	}
}

// Get returns the held cookie, performing the auto-login chain when none is
// held yet. The returned cookie is not revalidated; callers that just hit
// an auth wall should use GetFresh.
func (m *Manager) Get(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cookie != "" {
		return m.cookie, nil
	}
	return m.establish(ctx)
}

// GetFresh revalidates the held cookie against the LMS and re-runs the
// login chain when it has gone stale.
func (m *Manager) GetFresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cookie != "" && m.auth.Validate(ctx, m.cookie) {
		return m.cookie, nil
	}
	m.cookie = ""
	return m.establish(ctx)
}

// Adopt installs an externally obtained cookie (interactive login) and
// persists it for future auto-logins.
func (m *Manager) Adopt(cookie string) {
	m.mu.Lock()
	m.cookie = cookie
	m.source = SourceManual
	m.mu.Unlock()

	if err := m.store.SaveCookie(cookie); err != nil {
		m.logger.Warn().Err(err).Msg("persist adopted cookie")
	}
}

// Invalidate drops the held cookie so the next Get re-authenticates.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.cookie = ""
	m.source = ""
	m.mu.Unlock()
}

// Source reports how the current session was obtained, empty when none is
// held.
func (m *Manager) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

// Client returns a fresh HTTP client bound to the current session cookie.
// Each caller gets its own client.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	cookie, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}
	return NewClient(m.auth.BaseURL(), cookie), nil
}

// BaseURL exposes the LMS base URL for callers composing page URLs.
func (m *Manager) BaseURL() string {
	return m.auth.BaseURL()
}

// Sesskey derives a fresh CSRF token using the current session.
func (m *Manager) Sesskey(ctx context.Context, courseID int) (string, error) {
	client, err := m.Client(ctx)
	if err != nil {
		return "", err
	}
	return m.auth.Sesskey(ctx, client, courseID)
}

// establish runs the auto-login chain with the lock held.
func (m *Manager) establish(ctx context.Context) (string, error) {
	creds, err := m.store.Load()
	if err != nil {
		m.logger.Debug().Err(err).Msg("credential store unreadable")
	}

	if creds.Cookie != "" && m.auth.Validate(ctx, creds.Cookie) {
		m.cookie = creds.Cookie
		m.source = SourceCookie
		m.logger.Info().Msg("session restored from stored cookie")
		return m.cookie, nil
	}

	if creds.HasLogin() {
		cookie, err := m.auth.Login(ctx, creds.Username, creds.Password)
		if err != nil {
			return "", err
		}
		m.cookie = cookie
		m.source = SourceCredentials
		if err := m.store.SaveCookie(cookie); err != nil {
			m.logger.Warn().Err(err).Msg("persist refreshed cookie")
		}
		m.logger.Info().Msg("session minted from stored credentials")
		return m.cookie, nil
	}

	return "", ErrNotAuthenticated
}
