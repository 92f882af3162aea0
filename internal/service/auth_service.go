package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

const defaultTokenTTL = 12 * time.Hour

// ErrInvalidCookie means a manually supplied session cookie failed the
// LMS validation probe.
var ErrInvalidCookie = errors.New("session cookie rejected by lms")

// LMSAuthenticator performs raw credential checks against the LMS.
type LMSAuthenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Validate(ctx context.Context, cookie string) bool
}

// SessionKeeper holds the LMS session cookie between requests.
type SessionKeeper interface {
	Get(ctx context.Context) (string, error)
	GetFresh(ctx context.Context) (string, error)
	Adopt(cookie string)
	Source() string
}

// CredentialSource reads the stored login material.
type CredentialSource interface {
	Load() (models.Credentials, error)
}

// LoginResult is a minted API token plus how the LMS session behind it was
// obtained.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Source    string    `json:"source"`
}

// SessionInfo reports whether an LMS session is currently usable.
type SessionInfo struct {
	Authenticated bool   `json:"authenticated"`
	Source        string `json:"source,omitempty"`
}

// AuthService exchanges LMS credentials for API bearer tokens and keeps
// the scraping session alive behind them.
type AuthService interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
	AutoLogin(ctx context.Context) (LoginResult, error)
	AdoptCookie(ctx context.Context, cookie string) (LoginResult, error)
	Session(ctx context.Context) SessionInfo
}

type authService struct {
	auth   LMSAuthenticator
	keeper SessionKeeper
	creds  CredentialSource
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewAuthService wires the LMS authenticator to the token minter. A zero
// ttl selects the default.
func NewAuthService(auth LMSAuthenticator, keeper SessionKeeper, creds CredentialSource, secret string, ttl time.Duration, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &authService{
		auth:   auth,
		keeper: keeper,
		creds:  creds,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger.With().Str("component", "auth_service").Logger(),
		now:    time.Now,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	cookie, err := s.auth.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("lms login failed")
		return LoginResult{}, err
	}

	s.keeper.Adopt(cookie)
	s.logger.Info().Str("username", username).Msg("lms session established")

	result, err := s.mint(username)
	if err != nil {
		return LoginResult{}, err
	}
	result.Source = s.keeper.Source()
	return result, nil
}

func (s *authService) AutoLogin(ctx context.Context) (LoginResult, error) {
	if _, err := s.keeper.GetFresh(ctx); err != nil {
		return LoginResult{}, err
	}

	subject := "instructor"
	if creds, err := s.creds.Load(); err == nil && creds.Username != "" {
		subject = creds.Username
	}

	result, err := s.mint(subject)
	if err != nil {
		return LoginResult{}, err
	}
	result.Source = s.keeper.Source()
	return result, nil
}

func (s *authService) AdoptCookie(ctx context.Context, cookie string) (LoginResult, error) {
	if !s.auth.Validate(ctx, cookie) {
		return LoginResult{}, ErrInvalidCookie
	}
	s.keeper.Adopt(cookie)
	result, err := s.mint("instructor")
	if err != nil {
		return LoginResult{}, err
	}
	result.Source = s.keeper.Source()
	return result, nil
}

func (s *authService) Session(ctx context.Context) SessionInfo {
	if _, err := s.keeper.GetFresh(ctx); err != nil {
		return SessionInfo{Authenticated: false}
	}
	return SessionInfo{Authenticated: true, Source: s.keeper.Source()}
}

// mint signs an HS256 bearer token for the API surface.
func (s *authService) mint(subject string) (LoginResult, error) {
	issued := s.now()
	expires := issued.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": "instructor",
		"iat":  issued.Unix(),
		"exp":  expires.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	return LoginResult{Token: signed, ExpiresAt: expires}, nil
}
