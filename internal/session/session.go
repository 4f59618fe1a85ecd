// Package session keeps the signed-in state of the storefront user. The
// backend verifies tokens; the client only reads their expiry.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrEmptyToken   = errors.New("empty token")
	ErrTokenExpired = errors.New("token already expired")
)

type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticated
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusExpired:
		return "expired"
	default:
		return "anonymous"
	}
}

// Session is a snapshot. A zero ExpiresAt means the token carries no
// readable expiry.
type Session struct {
	Status    Status
	Token     string
	Subject   string
	ExpiresAt time.Time
}

// Valid reports whether the token may still be sent at now.
func (s Session) Valid(now time.Time) bool {
	if s.Status != StatusAuthenticated || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

type Action interface {
	apply(Session, time.Time) (Session, error)
}

// Login stores Token. JWTs have their exp and sub claims read without
// verification; opaque tokens are kept without an expiry.
type Login struct {
	Token string
}

func (a Login) apply(_ Session, now time.Time) (Session, error) {
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(a.Token), "Bearer "))
	if token == "" {
		return Session{}, ErrEmptyToken
	}

	next := Session{Status: StatusAuthenticated, Token: token}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return next, nil
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		next.ExpiresAt = exp.Time
		if !now.Before(next.ExpiresAt) {
			return Session{}, ErrTokenExpired
		}
	}
	if sub, err := claims.GetSubject(); err == nil {
		next.Subject = sub
	}
	return next, nil
}

type Logout struct{}

func (Logout) apply(Session, time.Time) (Session, error) {
	return Session{Status: StatusAnonymous}, nil
}

// Expire drops the token but remembers that the user had signed in, so the
// caller can ask them to log in again.
type Expire struct{}

func (Expire) apply(s Session, _ time.Time) (Session, error) {
	if s.Status != StatusAuthenticated {
		return s, nil
	}
	return Session{Status: StatusExpired, Subject: s.Subject}, nil
}

// Store owns one session.
type Store struct {
	mu     sync.Mutex
	state  Session
	subs   []func(Session)
	now    func() time.Time
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		now:    time.Now,
		logger: logger.With(zap.String("component", "session")),
	}
}

// Dispatch applies a. Subscribers only hear about actual transitions.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	prev := s.state
	next, err := a.apply(prev, s.now())
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("Session action rejected", zap.Error(err))
		return err
	}
	s.state = next
	subs := append(([]func(Session))(nil), s.subs...)
	s.mu.Unlock()

	if next == prev {
		return nil
	}
	s.logger.Info("Session changed",
		zap.Stringer("from", prev.Status),
		zap.Stringer("to", next.Status),
		zap.String("subject", next.Subject),
	)
	for _, fn := range subs {
		fn(next)
	}
	return nil
}

func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every session transition.
func (s *Store) Subscribe(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Token returns the bearer token while the session is valid. A token past
// its expiry expires the session.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	state := s.state
	now := s.now()
	s.mu.Unlock()

	if state.Valid(now) {
		return state.Token, true
	}
	if state.Status == StatusAuthenticated {
		_ = s.Dispatch(Expire{})
	}
	return "", false
}

// OnUnauthorized expires the session after the backend rejected its token.
func (s *Store) OnUnauthorized() {
	_ = s.Dispatch(Expire{})
}
