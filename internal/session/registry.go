// Package session binds connections to players through opaque tokens.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MichelPescina/JogoTesto/internal/clock"
	"github.com/MichelPescina/JogoTesto/internal/game"
)

const (
	DefaultExpiry = 24 * time.Hour

	tokenBytes = 32
)

// Session ties a token to a player id and, once joined, a match. Sessions
// only hold identifiers.
type Session struct {
	Token        string
	PlayerID     string
	MatchID      string
	Name         string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Registry holds every valid session.
type Registry struct {
	mu       sync.Mutex
	byToken  map[string]*Session
	byPlayer map[string]string

	expiry time.Duration
	clock  clock.Clock

	// OnExpire, when set, is called outside the lock for each swept session.
	onExpire func(Session)
}

type RegistryOpt func(*Registry)

func WithExpiry(d time.Duration) RegistryOpt {
	return func(r *Registry) {
		r.expiry = d
	}
}

func WithClock(c clock.Clock) RegistryOpt {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithExpireHook registers f to run for every session removed by Tick.
func WithExpireHook(f func(Session)) RegistryOpt {
	return func(r *Registry) {
		r.onExpire = f
	}
}

func NewRegistry(opts ...RegistryOpt) *Registry {
	r := &Registry{
		byToken:  make(map[string]*Session),
		byPlayer: make(map[string]string),
		expiry:   DefaultExpiry,
		clock:    clock.Real{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewToken returns a random URL-safe token that carries no identifiers.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create starts a lobby session for a fresh player id.
func (r *Registry) Create() (Session, error) {
	token, err := NewToken()
	if err != nil {
		return Session{}, err
	}

	now := r.clock.Now()
	s := &Session{
		Token:        token,
		PlayerID:     uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[s.Token] = s
	r.byPlayer[s.PlayerID] = s.Token
	return *s, nil
}

// Get returns the session for token.
func (r *Registry) Get(token string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byToken[token]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// ByPlayer returns the session owning playerID.
func (r *Registry) ByPlayer(playerID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byPlayer[playerID]
	if !ok {
		return Session{}, false
	}
	return *r.byToken[token], true
}

// Bind records that the session's player joined matchID under name.
func (r *Registry) Bind(token, matchID, name string) error {
	return r.update(token, func(s *Session) {
		s.MatchID = matchID
		s.Name = name
	})
}

// Unbind clears the match of a session, returning it to the lobby.
func (r *Registry) Unbind(token string) error {
	return r.update(token, func(s *Session) {
		s.MatchID = ""
	})
}

func (r *Registry) Rename(token, name string) error {
	return r.update(token, func(s *Session) {
		s.Name = name
	})
}

// Touch refreshes the inactivity clock of a session.
func (r *Registry) Touch(token string) error {
	return r.update(token, func(*Session) {})
}

func (r *Registry) update(token string, f func(*Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byToken[token]
	if !ok {
		return game.ErrSessionInvalid
	}
	f(s)
	s.LastActivity = r.clock.Now()
	return nil
}

// Invalidate removes a session. Unknown tokens are ignored.
func (r *Registry) Invalidate(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(token)
}

func (r *Registry) remove(token string) {
	s, ok := r.byToken[token]
	if !ok {
		return
	}
	delete(r.byToken, token)
	if r.byPlayer[s.PlayerID] == token {
		delete(r.byPlayer, s.PlayerID)
	}
}

// Validate checks a reconnect triple against the registry.
func (r *Registry) Validate(matchID, playerID, token string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byToken[token]
	if !ok {
		return Session{}, game.ErrSessionInvalid
	}
	if s.PlayerID != playerID || s.MatchID != matchID || matchID == "" {
		return Session{}, game.ErrSessionMismatch
	}
	s.LastActivity = r.clock.Now()
	return *s, nil
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}

// Tick sweeps sessions idle for longer than the expiry.
func (r *Registry) Tick(ctx context.Context) error {
	now := r.clock.Now()

	r.mu.Lock()
	var expired []Session
	for token, s := range r.byToken {
		if now.Sub(s.LastActivity) > r.expiry {
			expired = append(expired, *s)
			r.remove(token)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		slog.InfoContext(ctx, "session expired", "player", s.PlayerID, "match", s.MatchID)
		if r.onExpire != nil {
			r.onExpire(s)
		}
	}
	return nil
}
