// Package matches owns the set of live matches and which one each player is in.
package matches

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MichelPescina/JogoTesto/internal/clock"
	"github.com/MichelPescina/JogoTesto/internal/game"
	"github.com/MichelPescina/JogoTesto/internal/observe"
	"github.com/MichelPescina/JogoTesto/internal/world"
)

const DefaultRetention = 5 * time.Minute

// Registry hands out matches to joining players and sweeps old ones away.
// It is the only owner of *game.Match values.
type Registry struct {
	mu         sync.Mutex
	matches    map[string]*game.Match
	order      []string
	membership map[string]string
	counted    map[string]bool

	catalog    *world.Catalog
	rules      game.Rules
	maxMatches int
	retention  time.Duration
	clock      clock.Clock
	pub        game.Publisher
	metrics    *observe.Metrics
	matchOpts  []game.MatchOpt
}

type RegistryOpt func(*Registry)

// WithMaxMatches bounds the number of matches held at once. Zero means no
// bound.
func WithMaxMatches(n int) RegistryOpt {
	return func(r *Registry) {
		r.maxMatches = n
	}
}

// WithRetention sets how long a finished match stays listed.
func WithRetention(d time.Duration) RegistryOpt {
	return func(r *Registry) {
		r.retention = d
	}
}

func WithClock(c clock.Clock) RegistryOpt {
	return func(r *Registry) {
		r.clock = c
	}
}

func WithPublisher(p game.Publisher) RegistryOpt {
	return func(r *Registry) {
		r.pub = p
	}
}

func WithMetrics(m *observe.Metrics) RegistryOpt {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithMatchOpts adds options applied to every new match.
func WithMatchOpts(opts ...game.MatchOpt) RegistryOpt {
	return func(r *Registry) {
		r.matchOpts = append(r.matchOpts, opts...)
	}
}

func NewRegistry(catalog *world.Catalog, rules game.Rules, opts ...RegistryOpt) *Registry {
	r := &Registry{
		matches:    make(map[string]*game.Match),
		membership: make(map[string]string),
		counted:    make(map[string]bool),
		catalog:    catalog,
		rules:      rules,
		retention:  DefaultRetention,
		clock:      clock.Real{},
		metrics:    observe.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.retention < rules.DisconnectGrace {
		r.retention = rules.DisconnectGrace
	}
	return r
}

// Join places a player in the oldest open match that will take its name,
// creating a match when none will. A player still alive in a live match gets
// that match back unchanged.
func (r *Registry) Join(ctx context.Context, playerID, token, name string) (*game.Match, game.JoinResult, error) {
	name, err := game.ValidateName(name)
	if err != nil {
		return nil, game.JoinResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.current(playerID); ok {
		p, _ := m.Player(playerID)
		if m.State() != game.StateFinished && p.Alive() {
			res, err := m.Join(playerID, token, name)
			return m, res, err
		}
		if err := m.Leave(playerID); err != nil {
			slog.WarnContext(ctx, "leaving previous match", "player", playerID, "match", m.ID(), "error", err)
		}
		delete(r.membership, playerID)
	}

	for _, id := range r.order {
		m := r.matches[id]
		if !m.Accepts(name) {
			continue
		}
		res, err := m.Join(playerID, token, name)
		switch game.CodeOf(err) {
		case "":
			r.membership[playerID] = m.ID()
			return m, res, nil
		case game.CodeMatchFull, game.CodeMatchStarted, game.CodeNameTaken:
			continue
		default:
			return nil, game.JoinResult{}, err
		}
	}

	if r.maxMatches > 0 && len(r.matches) >= r.maxMatches {
		return nil, game.JoinResult{}, game.ErrServerFull
	}

	m := r.create(ctx)
	res, err := m.Join(playerID, token, name)
	if err != nil {
		return nil, game.JoinResult{}, err
	}
	r.membership[playerID] = m.ID()
	return m, res, nil
}

func (r *Registry) create(ctx context.Context) *game.Match {
	opts := []game.MatchOpt{game.WithClock(r.clock)}
	if r.pub != nil {
		opts = append(opts, game.WithPublisher(r.pub))
	}
	opts = append(opts, r.matchOpts...)

	m := game.NewMatch("", r.catalog, r.rules, opts...)
	r.matches[m.ID()] = m
	r.order = append(r.order, m.ID())

	r.metrics.MatchesCreated.Add(ctx, 1)
	r.metrics.ActiveMatches.Add(ctx, 1)
	slog.InfoContext(ctx, "match created", "match", m.ID(), "matches", len(r.matches))
	return m
}

// current returns the match a player belongs to, forgetting stale links.
func (r *Registry) current(playerID string) (*game.Match, bool) {
	id, ok := r.membership[playerID]
	if !ok {
		return nil, false
	}
	m, ok := r.matches[id]
	if !ok || !m.HasPlayer(playerID) {
		delete(r.membership, playerID)
		return nil, false
	}
	return m, true
}

// Leave takes a player out of its match.
func (r *Registry) Leave(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.current(playerID)
	if !ok {
		return game.ErrNotInMatch
	}
	delete(r.membership, playerID)
	return m.Leave(playerID)
}

// MatchOf returns the match a player is in.
func (r *Registry) MatchOf(playerID string) (*game.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current(playerID)
}

// Lookup finds a match by id.
func (r *Registry) Lookup(matchID string) (*game.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	return m, ok
}

// Adopt records that playerID is in matchID again after a reconnect.
func (r *Registry) Adopt(playerID, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[matchID]
	if !ok {
		return game.ErrUnknownMatch
	}
	if !m.HasPlayer(playerID) {
		return game.ErrSessionInvalid
	}
	r.membership[playerID] = matchID
	return nil
}

// Count returns how many matches the registry holds.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

// Summaries lists every held match, oldest first.
func (r *Registry) Summaries() []game.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]game.Summary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.matches[id].Summary())
	}
	return out
}

// Tick removes finished matches past retention and idle empty matches, and
// forgets memberships whose match no longer holds the player.
func (r *Registry) Tick(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var keep []string
	for _, id := range r.order {
		m := r.matches[id]
		if r.expired(ctx, m, now) {
			m.Close()
			delete(r.matches, id)
			delete(r.counted, id)
			r.metrics.ActiveMatches.Add(ctx, -1)
			slog.InfoContext(ctx, "match removed", "match", id)
			continue
		}
		keep = append(keep, id)
	}
	r.order = keep

	for playerID := range r.membership {
		r.current(playerID)
	}
	return nil
}

func (r *Registry) expired(ctx context.Context, m *game.Match, now time.Time) bool {
	if finishedAt, ok := m.FinishedAt(); ok {
		if !r.counted[m.ID()] {
			r.counted[m.ID()] = true
			r.metrics.RecordMatchFinished(ctx, string(m.Summary().Reason))
		}
		return now.Sub(finishedAt) >= r.retention
	}
	if m.State() == game.StateActive {
		return false
	}
	since, empty := m.EmptySince()
	return empty && now.Sub(since) >= r.rules.DisconnectGrace
}

// Shutdown finishes every match that is still running.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		m := r.matches[id]
		if m.State() != game.StateFinished {
			m.Finish(game.EndShutdown)
			slog.InfoContext(ctx, "match finished for shutdown", "match", id)
		}
	}
}
