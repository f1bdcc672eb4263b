// Package auth gates the admin console behind a single operator session.
package auth

import (
	"context"
	"errors"
	"time"
)

// InvalidCredentialsMessage is shown on the login form for a bad sign-in.
const InvalidCredentialsMessage = "Invalid login credentials"

var (
	// ErrInvalidCredentials means the email or password did not match.
	ErrInvalidCredentials = errors.New("auth: invalid login credentials")

	// ErrNoSession means the token is missing, expired, revoked or forged.
	ErrNoSession = errors.New("auth: no active session")

	// ErrProviderUnavailable means the session backend could not be reached.
	ErrProviderUnavailable = errors.New("auth: session provider unavailable")
)

// Session is an authenticated operator session.
type Session struct {
	ID        string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// EventKind names a session change.
type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
	Expired   EventKind = "expired"
)

// Event is one entry of the provider's session change stream.
type Event struct {
	Kind      EventKind
	SessionID string
}

// Provider is the authentication collaborator behind the guard.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Current(ctx context.Context, token string) (*Session, error)
	// Subscribe returns the change stream and a func that ends the subscription.
	Subscribe() (<-chan Event, func())
}
