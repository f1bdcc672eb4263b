package auth

import (
	"context"
	"errors"
	"sync"
)

// LoginPath is where unauthenticated operators are sent.
const LoginPath = "/admin/login"

// Phase is the guard's resolution state.
type Phase int

const (
	Loading Phase = iota
	Authenticated
	Unauthenticated
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// State is the externally visible guard state.
type State struct {
	SessionPresent bool
	Loading        bool
}

// DecisionKind is the admission verdict for a protected destination.
type DecisionKind int

const (
	Wait DecisionKind = iota
	Admit
	Redirect
)

// Decision tells the caller what to do with a protected request. For
// Redirect, From carries the original destination so login can return there.
type Decision struct {
	Kind DecisionKind
	To   string
	From string
}

// Guard tracks whether an operator session is present. It starts Loading
// and never admits until resolution finishes.
type Guard struct {
	provider Provider

	mu      sync.RWMutex
	phase   Phase
	session *Session
}

// NewGuard starts in Loading.
func NewGuard(p Provider) *Guard {
	if p == nil {
		panic("auth: provider required")
	}
	return &Guard{provider: p, phase: Loading}
}

// Resolve performs the initial session lookup. When the provider is
// unavailable the guard stays Loading and the error is returned.
func (g *Guard) Resolve(ctx context.Context, token string) error {
	sess, err := g.provider.Current(ctx, token)

	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case err == nil:
		g.phase, g.session = Authenticated, sess
	case errors.Is(err, ErrNoSession):
		g.phase, g.session = Unauthenticated, nil
	default:
		return err
	}
	return nil
}

// Watch applies the provider's change stream until ctx ends.
func (g *Guard) Watch(ctx context.Context) {
	events, cancel := g.provider.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			g.apply(ev)
		}
	}
}

func (g *Guard) apply(ev Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch ev.Kind {
	case SignedOut, Expired:
		if g.phase == Authenticated && g.session != nil && g.session.ID == ev.SessionID {
			g.phase, g.session = Unauthenticated, nil
		}
	}
}

// SignIn authenticates through the provider. On failure the provider's
// error is returned unchanged and the state is left as it was.
func (g *Guard) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.phase, g.session = Authenticated, sess
	g.mu.Unlock()
	return sess, nil
}

// SignOut ends the current session, if any.
func (g *Guard) SignOut(ctx context.Context) error {
	g.mu.RLock()
	sess := g.session
	g.mu.RUnlock()

	var err error
	if sess != nil {
		err = g.provider.SignOut(ctx, sess.Token)
		if errors.Is(err, ErrNoSession) {
			err = nil
		}
	}
	if err == nil {
		g.mu.Lock()
		g.phase, g.session = Unauthenticated, nil
		g.mu.Unlock()
	}
	return err
}

// Phase returns the current resolution phase.
func (g *Guard) Phase() Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

func (g *Guard) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return State{SessionPresent: g.session != nil, Loading: g.phase == Loading}
}

// Session returns the active session or nil.
func (g *Guard) Session() *Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// Admit decides whether dest may be shown.
func (g *Guard) Admit(dest string) Decision {
	g.mu.RLock()
	defer g.mu.RUnlock()
	switch g.phase {
	case Loading:
		return Decision{Kind: Wait}
	case Authenticated:
		return Decision{Kind: Admit}
	default:
		return Decision{Kind: Redirect, To: LoginPath, From: dest}
	}
}
