package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wmcproducts/partner-site/pkg/logging"
)

const (
	tokenIssuer       = "wmc-admin"
	defaultSessionTTL = 12 * time.Hour
	subscriberBuffer  = 8
)

// LocalConfig configures the single operator account.
type LocalConfig struct {
	Email        string
	PasswordHash string // bcrypt
	Secret       string // HS256 signing key
	TTL          time.Duration
}

// LocalProvider authenticates one operator account from configuration and
// issues HS256 session tokens tracked in a SessionStore.
type LocalProvider struct {
	email  string
	hash   []byte
	secret []byte
	ttl    time.Duration
	store  SessionStore
	logger *logging.Logger
	now    func() time.Time

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewLocalProvider validates the account settings.
func NewLocalProvider(cfg LocalConfig, store SessionStore, logger *logging.Logger) (*LocalProvider, error) {
	if store == nil {
		return nil, errors.New("auth: session store required")
	}
	if cfg.Secret == "" {
		return nil, errors.New("auth: signing secret required")
	}
	if strings.TrimSpace(cfg.Email) == "" {
		return nil, errors.New("auth: admin email required")
	}
	if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
		return nil, fmt.Errorf("auth: admin password hash: %w", err)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultSessionTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LocalProvider{
		email:  strings.ToLower(strings.TrimSpace(cfg.Email)),
		hash:   []byte(cfg.PasswordHash),
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		store:  store,
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]chan Event),
	}, nil
}

// SignIn checks the credentials and opens a session.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	// always run bcrypt so a wrong email costs the same as a wrong password
	pwErr := bcrypt.CompareHashAndPassword(p.hash, []byte(password))
	if strings.ToLower(strings.TrimSpace(email)) != p.email || pwErr != nil {
		p.logger.Warn("admin sign-in rejected", "email", email)
		return nil, ErrInvalidCredentials
	}

	now := p.now()
	sess := &Session{
		ID:        uuid.New().String(),
		Email:     p.email,
		ExpiresAt: now.Add(p.ttl),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   sess.Email,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("auth: sign token: %w", err)
	}
	sess.Token = token

	if err := p.store.Put(ctx, sess.ID, sess.Email, p.ttl); err != nil {
		p.logger.Error("failed to record admin session", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	p.logger.Info("admin signed in", "session_id", sess.ID)
	p.broadcast(Event{Kind: SignedIn, SessionID: sess.ID})
	return sess, nil
}

// Current resolves a token to its live session.
func (p *LocalProvider) Current(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	claims, err := p.parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.ID != "" {
			p.broadcast(Event{Kind: Expired, SessionID: claims.ID})
		}
		return nil, ErrNoSession
	}

	live, err := p.store.Exists(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if !live {
		return nil, ErrNoSession
	}

	sess := &Session{ID: claims.ID, Email: claims.Subject, Token: token}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// SignOut revokes the session behind token, even if the token has expired.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token, jwt.WithoutClaimsValidation())
	if err != nil || claims.ID == "" {
		return ErrNoSession
	}
	if err := p.store.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	p.logger.Info("admin signed out", "session_id", claims.ID)
	p.broadcast(Event{Kind: SignedOut, SessionID: claims.ID})
	return nil
}

// Subscribe registers for session change events. Slow subscribers miss
// events rather than stalling the provider.
func (p *LocalProvider) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(ch)
		})
	}
}

func (p *LocalProvider) broadcast(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (p *LocalProvider) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	opts = append(opts, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(p.now))
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	}, opts...)
	return claims, err
}

var _ Provider = (*LocalProvider)(nil)
