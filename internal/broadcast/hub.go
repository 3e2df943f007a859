// Package broadcast fans game events out to attached connections. Every
// player has one subject on the message bus, so a connection sees its events
// in publish order.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/MichelPescina/JogoTesto/internal/game"
	"github.com/MichelPescina/JogoTesto/internal/observe"
)

// Bus is the message transport the hub publishes through.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// Subject returns the bus subject carrying a player's events.
func Subject(playerID string) string {
	return "player." + playerID
}

// Hub implements game.Publisher over a Bus.
type Hub struct {
	bus     Bus
	metrics *observe.Metrics
	now     func() time.Time

	mu       sync.RWMutex
	scopes   map[game.Scope]map[string]struct{}
	attached map[string]*Attachment
}

type HubOpt func(*Hub)

func WithMetrics(m *observe.Metrics) HubOpt {
	return func(h *Hub) {
		h.metrics = m
	}
}

// WithNow overrides the time source used to stamp lobby events.
func WithNow(now func() time.Time) HubOpt {
	return func(h *Hub) {
		h.now = now
	}
}

func NewHub(bus Bus, opts ...HubOpt) *Hub {
	h := &Hub{
		bus:      bus,
		metrics:  observe.Nop(),
		now:      time.Now,
		scopes:   make(map[game.Scope]map[string]struct{}),
		attached: make(map[string]*Attachment),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attachment is one connection's claim on a player's events.
type Attachment struct {
	hub      *Hub
	playerID string
	unsub    func()
	done     chan struct{}
	once     sync.Once
}

func (a *Attachment) PlayerID() string {
	return a.playerID
}

// Done is closed when the attachment is detached or taken over by another
// connection.
func (a *Attachment) Done() <-chan struct{} {
	return a.done
}

// Detach stops delivery. It is safe to call more than once.
func (a *Attachment) Detach() {
	a.hub.detach(a)
}

func (a *Attachment) close() {
	a.once.Do(func() {
		a.unsub()
		close(a.done)
	})
}

// Attach starts delivering a player's events to deliver. An earlier
// attachment for the same player is closed.
func (h *Hub) Attach(playerID string, deliver func(data []byte)) (*Attachment, error) {
	unsub, err := h.bus.Subscribe(Subject(playerID), deliver)
	if err != nil {
		return nil, err
	}
	a := &Attachment{
		hub:      h,
		playerID: playerID,
		unsub:    unsub,
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	prev := h.attached[playerID]
	h.attached[playerID] = a
	h.mu.Unlock()

	if prev != nil {
		prev.close()
	} else {
		h.metrics.ConnectedPlayers.Add(context.Background(), 1)
	}
	return a, nil
}

func (h *Hub) detach(a *Attachment) {
	h.mu.Lock()
	current := h.attached[a.playerID] == a
	if current {
		delete(h.attached, a.playerID)
	}
	h.mu.Unlock()

	if current {
		h.metrics.ConnectedPlayers.Add(context.Background(), -1)
	}
	a.close()
}

// Attached reports whether a connection currently holds playerID.
func (h *Hub) Attached(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.attached[playerID]
	return ok
}

// Connected counts attached connections.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.attached)
}

func (h *Hub) Subscribe(scope game.Scope, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.scopes[scope]
	if !ok {
		members = make(map[string]struct{})
		h.scopes[scope] = members
	}
	members[playerID] = struct{}{}
}

func (h *Hub) Unsubscribe(scope game.Scope, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.scopes[scope]
	if !ok {
		return
	}
	delete(members, playerID)
	if len(members) == 0 {
		delete(h.scopes, scope)
	}
}

// Members lists the players subscribed to scope. The lobby holds every
// attached player.
func (h *Hub) Members(scope game.Scope) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.members(scope)
}

func (h *Hub) members(scope game.Scope) []string {
	var ids []string
	if scope == game.LobbyScope {
		for id := range h.attached {
			ids = append(ids, id)
		}
		return ids
	}
	for id := range h.scopes[scope] {
		ids = append(ids, id)
	}
	return ids
}

// Publish sends ev to every member of scope except the excluded players.
func (h *Hub) Publish(scope game.Scope, ev game.Event, exclude ...string) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encoding event", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	targets := h.members(scope)
	h.mu.RUnlock()

	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	for _, id := range targets {
		if skip[id] {
			continue
		}
		h.send(id, ev.Type, data)
	}
}

// SendTo delivers ev to a single player.
func (h *Hub) SendTo(playerID string, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encoding event", "type", ev.Type, "error", err)
		return
	}
	h.send(playerID, ev.Type, data)
}

func (h *Hub) send(playerID string, t game.EventType, data []byte) {
	if err := h.bus.Publish(Subject(playerID), data); err != nil {
		slog.Warn("publishing event", "player", playerID, "type", t, "error", err)
	}
}

// Lobby publishes a lobby-wide event stamped with the hub's clock.
func (h *Hub) Lobby(t game.EventType, data any, exclude ...string) {
	h.Publish(game.LobbyScope, game.Event{Type: t, Time: h.now(), Data: data}, exclude...)
}

// Notify sends a match-less event to one player.
func (h *Hub) Notify(playerID string, t game.EventType, data any) {
	h.SendTo(playerID, game.Event{Type: t, Time: h.now(), Data: data})
}

// Shutdown tells every attached connection the server is going away.
func (h *Hub) Shutdown(reason string) {
	h.Lobby(game.EventServerShutdown, game.ShutdownData{Reason: reason})
}
