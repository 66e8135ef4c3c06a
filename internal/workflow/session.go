package workflow

import (
	"fmt"
	"time"
)

// Role is the user role carried by a session.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Actor maps a role onto the state machine actor.
func (r Role) Actor() (Actor, bool) {
	switch r {
	case RoleStudent:
		return ActorStudent, true
	case RoleAdmin:
		return ActorAdmin, true
	}
	return 0, false
}

// Session is an authenticated caller. Expiry is a timestamp; callers check it
// explicitly with Check before each operation.
type Session struct {
	UserID    int64     `json:"userId" yaml:"userId"`
	Username  string    `json:"username" yaml:"username"`
	Role      Role      `json:"role" yaml:"role"`
	Token     string    `json:"-" yaml:"token"`
	ExpiresAt time.Time `json:"expiresAt" yaml:"expiresAt"`
}

// SystemSession acts on behalf of the server itself, for automated review moves.
func SystemSession() Session {
	return Session{Username: "system"}
}

// Expired reports whether the session is past its expiry at now.
// A zero ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Remaining returns how long the session stays valid after now.
func (s Session) Remaining(now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Check returns ErrSessionExpired once the session has lapsed.
func (s Session) Check(now time.Time) error {
	if s.Expired(now) {
		return fmt.Errorf("%w at %s", ErrSessionExpired, s.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func (s Session) actor() Actor {
	if s.Role == "" && s.UserID == 0 {
		return ActorSystem
	}
	a, _ := s.Role.Actor()
	return a
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// CanAccessStudent reports whether the session may read or write a student's documents.
func (s Session) CanAccessStudent(studentID int64) bool {
	return s.IsAdmin() || (s.Role == RoleStudent && s.UserID == studentID)
}
