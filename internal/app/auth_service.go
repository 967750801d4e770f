// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"plank/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided passcode was incorrect.
	ErrInvalidCredentials = errors.New("invalid passcode")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrNotOwner indicates an SSO identity other than the configured owner.
	ErrNotOwner = errors.New("identity is not the owner of this journal")
	// ErrPasswordDisabled indicates that no passcode hash is configured.
	ErrPasswordDisabled = errors.New("passcode login is not configured")
)

// SessionTTL is how long a login stays valid.
const SessionTTL = 24 * time.Hour

// OwnerSubject is the session subject used for passcode logins.
const OwnerSubject = "owner"

// AuthService gates the journal behind the owner's passcode or SSO identity.
type AuthService struct {
	sessions     domain.SessionRepository
	owner        string
	passwordHash string
}

// NewAuthService creates a new authentication service. owner is the SSO
// identity (email or subject) allowed in; passwordHash is a bcrypt hash and
// may be empty to disable passcode login.
func NewAuthService(sessions domain.SessionRepository, owner, passwordHash string) *AuthService {
	return &AuthService{
		sessions:     sessions,
		owner:        strings.TrimSpace(owner),
		passwordHash: passwordHash,
	}
}

// PasswordEnabled reports whether passcode login is available.
func (s *AuthService) PasswordEnabled() bool {
	return s.passwordHash != ""
}

// Login checks the passcode and creates a session.
func (s *AuthService) Login(ctx context.Context, password, userAgent, ip string) (string, error) {
	if !s.PasswordEnabled() {
		return "", ErrPasswordDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.createSession(ctx, OwnerSubject, userAgent, ip)
}

// LoginWithSubject creates a session for an identity already verified by the
// SSO provider. Only the configured owner is accepted.
func (s *AuthService) LoginWithSubject(ctx context.Context, subject, userAgent, ip string) (string, error) {
	if s.owner == "" || !strings.EqualFold(strings.TrimSpace(subject), s.owner) {
		return "", ErrNotOwner
	}
	return s.createSession(ctx, subject, userAgent, ip)
}

func (s *AuthService) createSession(ctx context.Context, subject, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	if err := s.sessions.Create(ctx, domain.Session{
		Token:     token,
		Subject:   subject,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}
	return token, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.Session, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if session.UserAgent != userAgent {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	return session, nil
}

// PurgeExpired removes sessions past their expiry.
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

// HashPassword returns the bcrypt hash to put in the configuration.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("passcode must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
