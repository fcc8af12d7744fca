// Package auth holds the logged-in user context and persists it in the system keyring.
//
// A Session is created on successful login, passed explicitly to whatever
// needs the user, and torn down on logout or once it expires.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arsu-cli/arsu/constant"
	"github.com/arsu-cli/arsu/key"
	"github.com/arsu-cli/arsu/log"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const account = "session"

var service = constant.Arsu + "-cli"

var (
	ErrNoSession      = errors.New("not logged in")
	ErrSessionExpired = errors.New("session expired")
)

// Session is the user context established by a login.
type Session struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	// Token is sent as a bearer token when the server issued one.
	Token     string    `json:"token,omitempty"`
	StartedAt time.Time `json:"started_at"`
	// ExpiresAt is zero for sessions that never expire.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession starts a session now that lasts for lifetime; zero lifetime never expires.
func NewSession(username, userID, token string, lifetime time.Duration) *Session {
	now := time.Now()
	s := &Session{
		Username:  username,
		UserID:    userID,
		Token:     token,
		StartedAt: now,
	}
	if lifetime > 0 {
		s.ExpiresAt = now.Add(lifetime)
	}
	return s
}

// Lifetime is the configured session lifetime.
func Lifetime() time.Duration {
	return time.Duration(viper.GetInt(key.SessionLifetime)) * time.Hour
}

func (s *Session) Valid() bool {
	if s == nil || strings.TrimSpace(s.Username) == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}

// Authorization returns the Authorization header value, or "" without a token.
func (s *Session) Authorization() string {
	if s == nil || s.Token == "" {
		return ""
	}
	return "Bearer " + s.Token
}

func (s *Session) String() string {
	if s.ExpiresAt.IsZero() {
		return s.Username
	}
	return fmt.Sprintf("%s (until %s)", s.Username, s.ExpiresAt.Format(time.RFC822))
}

// Begin persists s as the current session, replacing any previous one.
func Begin(s *Session) error {
	if !s.Valid() {
		return fmt.Errorf("begin session: %w", ErrSessionExpired)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	if err := keyring.Set(service, account, string(data)); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	log.WithFields(log.Fields{"user": s.Username}).Info("session started")
	return nil
}

// Current returns the persisted session. An expired session is ended and
// reported as ErrSessionExpired.
func Current() (*Session, error) {
	data, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		log.Warnf("discarding unreadable session: %v", err)
		_ = End()
		return nil, ErrNoSession
	}

	if !s.Valid() {
		log.WithFields(log.Fields{"user": s.Username}).Info("session expired")
		_ = End()
		return nil, ErrSessionExpired
	}

	return &s, nil
}

// End removes the persisted session. Ending without a session is not an error.
func End() error {
	err := keyring.Delete(service, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
