// Package session owns the LMS authentication lifecycle: logging in for a
// session cookie, validating it, deriving the per-login CSRF token, and
// building per-worker HTTP clients bound to one cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/parser"
)

const (
	sessionCookieName = "MoodleSession"
	browserUserAgent  = "Mozilla/5.0"
	loginTimeout      = 10 * time.Second
)

var (
	// ErrAuthFailed means the LMS rejected the username/password pair.
	ErrAuthFailed = errors.New("login rejected")
	// ErrNotAuthenticated means no cookie is held and no credentials are
	// available to mint one.
	ErrNotAuthenticated = errors.New("no authenticated session")
)

// Authenticator performs the raw authentication calls against one LMS host.
type Authenticator struct {
	base   string
	logger zerolog.Logger
}

// NewAuthenticator builds an Authenticator for the given LMS base URL.
func NewAuthenticator(baseURL string, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		base:   strings.TrimRight(baseURL, "/"),
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// BaseURL returns the normalized LMS base URL.
func (a *Authenticator) BaseURL() string {
	return a.base
}

// Login exchanges credentials for a session cookie. The login endpoint
// answers with a redirect carrying the cookie; redirects are not followed
// so the Set-Cookie header stays observable.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/login/index.php", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUserAgent)

	client := &http.Client{
		Timeout: loginTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c.Value, nil
		}
	}
	a.logger.Debug().Int("status", resp.StatusCode).Msg("login response carried no session cookie")
	return "", ErrAuthFailed
}

// Validate reports whether a cookie still holds an authenticated session:
// the dashboard must answer 200 and must not have bounced through the login
// page. All failures read as invalid, never as errors.
func (a *Authenticator) Validate(ctx context.Context, cookie string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/my/", nil)
	if err != nil {
		return false
	}
	resp, err := NewClient(a.base, cookie).Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return false
	}
	return !strings.Contains(strings.ToLower(resp.Request.URL.String()), "login")
}

// Sesskey scrapes the CSRF token from the course page, or from the
// dashboard when courseID is zero. Mutations re-derive it immediately
// before use; it is never cached across batches.
func (a *Authenticator) Sesskey(ctx context.Context, client *http.Client, courseID int) (string, error) {
	target := a.base + "/my/"
	if courseID > 0 {
		target = fmt.Sprintf("%s/course/view.php?id=%d", a.base, courseID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build sesskey request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch sesskey page: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read sesskey page: %w", err)
	}

	key := parser.ParseSesskey(string(body))
	if key == "" {
		return "", fmt.Errorf("session key not present on %s", target)
	}
	return key, nil
}
