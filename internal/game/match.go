package game

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MichelPescina/JogoTesto/internal/clock"
	"github.com/MichelPescina/JogoTesto/internal/world"
)

// State is the lifecycle stage of a match.
type State string

const (
	StateWaiting   State = "waiting"
	StateCountdown State = "countdown"
	StateActive    State = "active"
	StateFinished  State = "finished"
)

// EndReason explains why a match finished.
type EndReason string

const (
	EndLastStanding EndReason = "last-standing"
	EndTimeout      EndReason = "timeout"
	EndShutdown     EndReason = "shutdown"
	EndAbandoned    EndReason = "abandoned"
)

// Match is one isolated game. Every exported method takes the match lock, so
// commands and timer firings on the same match never interleave. Events are
// published while the lock is held, which keeps delivery in admission order.
type Match struct {
	mu sync.Mutex

	id      string
	catalog *world.Catalog
	rules   Rules
	clock   clock.Clock
	rnd     Random
	pub     Publisher
	log     *slog.Logger

	state      State
	players    map[string]*Player
	joinOrder  []string
	graph      *RoomGraph
	departed   []Standing
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
	emptySince time.Time
	winner     string
	reason     EndReason
	seq        uint64
	countdown  int
	closed     bool

	timers   map[timerKey]*scheduled
	timerGen uint64
}

type MatchOpt func(*Match)

func WithClock(c clock.Clock) MatchOpt {
	return func(m *Match) {
		m.clock = c
	}
}

func WithRandom(r Random) MatchOpt {
	return func(m *Match) {
		m.rnd = r
	}
}

func WithPublisher(p Publisher) MatchOpt {
	return func(m *Match) {
		m.pub = p
	}
}

func WithLogger(l *slog.Logger) MatchOpt {
	return func(m *Match) {
		m.log = l
	}
}

// NewMatch creates a waiting match over its own copy of the world. Every room
// rolls for a starting weapon. An empty id gets a fresh UUID.
func NewMatch(id string, catalog *world.Catalog, rules Rules, opts ...MatchOpt) *Match {
	if id == "" {
		id = uuid.NewString()
	}
	m := &Match{
		id:      id,
		catalog: catalog,
		rules:   rules,
		clock:   clock.Real{},
		rnd:     defaultRandom{},
		pub:     nopPublisher{},
		log:     slog.Default(),
		state:   StateWaiting,
		players: make(map[string]*Player),
		timers:  make(map[timerKey]*scheduled),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("match", id)

	m.createdAt = m.clock.Now()
	m.emptySince = m.createdAt
	m.graph = NewRoomGraph(catalog, rules.DefaultWeaponSpawnChance, m.rnd)
	for _, roomID := range m.graph.RoomIDs() {
		m.graph.RollSpawn(roomID)
	}
	return m
}

func (m *Match) ID() string {
	return m.id
}

func (m *Match) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Match) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// PlayerCount counts every record in the match, dead or alive.
func (m *Match) PlayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// EmptySince returns when the match last became empty. The second value is
// false while anyone is in it.
func (m *Match) EmptySince() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.players) > 0 {
		return time.Time{}, false
	}
	return m.emptySince, true
}

// FinishedAt returns when the match finished.
func (m *Match) FinishedAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finishedAt, m.state == StateFinished
}

func (m *Match) HasPlayer(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.players[playerID]
	return ok
}

// Player returns a copy of a player record.
func (m *Match) Player(playerID string) (Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// FindPlayerByName resolves a display name case-insensitively.
func (m *Match) FindPlayerByName(name string) (Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.byName(name); p != nil {
		return *p, true
	}
	return Player{}, false
}

// Names returns the display names of every player, in join order.
func (m *Match) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.joinOrder))
	for _, id := range m.joinOrder {
		names = append(names, m.players[id].Name)
	}
	return names
}

// Accepts reports whether a join under name would currently be admitted.
func (m *Match) Accepts(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateWaiting && m.state != StateCountdown {
		return false
	}
	if len(m.players) >= m.rules.MaxPlayersPerMatch {
		return false
	}
	return m.byName(name) == nil
}

func (m *Match) byName(name string) *Player {
	key := FoldName(name)
	for _, p := range m.players {
		if FoldName(p.Name) == key {
			return p
		}
	}
	return nil
}

// JoinResult describes the record a join produced or found.
type JoinResult struct {
	MatchID  string
	PlayerID string
	Name     string
	Existing bool
}

// Join admits a player under name. Re-joining with the same session token
// returns the existing record unchanged.
func (m *Match) Join(playerID, token, name string) (JoinResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.players {
		if p.SessionToken == token {
			return JoinResult{MatchID: m.id, PlayerID: p.ID, Name: p.Name, Existing: true}, nil
		}
	}
	if _, ok := m.players[playerID]; ok {
		return JoinResult{}, NewError(KindSession, CodeSessionMismatch, "That player is bound to another session.")
	}

	if m.state != StateWaiting && m.state != StateCountdown {
		return JoinResult{}, ErrMatchStarted
	}
	name, err := ValidateName(name)
	if err != nil {
		return JoinResult{}, err
	}
	if len(m.players) >= m.rules.MaxPlayersPerMatch {
		return JoinResult{}, ErrMatchFull
	}
	if m.byName(name) != nil {
		return JoinResult{}, ErrNameTaken
	}

	now := m.clock.Now()
	p := &Player{
		ID:           playerID,
		Name:         name,
		SessionToken: token,
		RoomID:       m.catalog.DefaultSpawnRoom(),
		Strength:     m.rules.BasePlayerStrength,
		Status:       StatusAlive,
		JoinedAt:     now,
	}
	m.players[p.ID] = p
	m.joinOrder = append(m.joinOrder, p.ID)
	m.graph.AddPlayer(p.ID, p.RoomID)
	m.pub.Subscribe(MatchScope(m.id), p.ID)
	m.pub.Subscribe(RoomScope(m.id, p.RoomID), p.ID)

	m.toPlayer(p.ID, EventMatchAssigned, MatchAssignedData{MatchID: m.id, PlayerID: p.ID, SessionToken: token})
	m.broadcast(EventMatchJoined, MatchJoinedData{
		Player:     p.brief(),
		Players:    len(m.players),
		MaxPlayers: m.rules.MaxPlayersPerMatch,
		MinPlayers: m.rules.MinPlayersToStart,
		State:      m.state,
	})
	m.log.Info("player joined", "player", p.ID, "name", p.Name, "players", len(m.players))

	if len(m.players) == m.rules.MaxPlayersPerMatch {
		m.broadcast(EventMatchFull, MatchJoinedData{
			Players:    len(m.players),
			MaxPlayers: m.rules.MaxPlayersPerMatch,
			MinPlayers: m.rules.MinPlayersToStart,
			State:      m.state,
		})
	}
	if m.state == StateWaiting && len(m.players) >= m.rules.MinPlayersToStart {
		m.startCountdown()
	}

	return JoinResult{MatchID: m.id, PlayerID: p.ID, Name: p.Name}, nil
}

// Leave takes a player out of the match. Leaving an active match forfeits it.
func (m *Match) Leave(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return ErrNotInMatch
	}

	switch m.state {
	case StateFinished:
		// The record moves to the standings so the player can join elsewhere.
		m.departed = append(m.departed, m.standing(p))
		m.graph.RemovePlayer(p.ID, p.RoomID)
		m.drop(p)
		return nil
	case StateActive:
		if p.Alive() {
			m.kill(p, "", "forfeit")
		}
		m.departed = append(m.departed, m.standing(p))
		m.drop(p)
		m.checkEnd()
	default:
		m.removeWaiting(p)
	}
	return nil
}

// removeWaiting takes a player out of a match that has not started yet and
// cancels the countdown when too few remain.
func (m *Match) removeWaiting(p *Player) {
	m.graph.RemovePlayer(p.ID, p.RoomID)
	m.drop(p)
	m.broadcast(EventMatchLeft, MatchLeftData{Player: p.brief(), Players: len(m.players)})
	m.log.Info("player left", "player", p.ID, "players", len(m.players))

	if m.state == StateCountdown && len(m.players) < m.rules.MinPlayersToStart {
		m.cancelCountdown()
	}
}

// drop forgets a player record. Room membership must already be settled.
func (m *Match) drop(p *Player) {
	m.cancelPlayerTimers(p.ID)
	m.pub.Unsubscribe(RoomScope(m.id, p.RoomID), p.ID)
	m.pub.Unsubscribe(MatchScope(m.id), p.ID)
	delete(m.players, p.ID)
	for i, id := range m.joinOrder {
		if id == p.ID {
			m.joinOrder = append(m.joinOrder[:i], m.joinOrder[i+1:]...)
			break
		}
	}
	if len(m.players) == 0 {
		m.emptySince = m.clock.Now()
	}
}

// Rename changes a display name, keeping names unique within the match.
func (m *Match) Rename(playerID, newName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return "", ErrNotInMatch
	}
	if m.state == StateFinished {
		return "", NewError(KindState, CodeMatchStarted, "The match is over.")
	}
	name, err := ValidateName(newName)
	if err != nil {
		return "", err
	}
	if other := m.byName(name); other != nil && other.ID != p.ID {
		return "", ErrNameTaken
	}

	old := p.Name
	p.Name = name
	m.broadcast(EventPlayerRenamed, RenamedData{PlayerID: p.ID, OldName: old, NewName: name})
	return name, nil
}

// ChatRoom relays already sanitized text to everyone in the speaker's room.
func (m *Match) ChatRoom(playerID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return ErrNotInMatch
	}
	if !p.Alive() {
		return Errorf(KindState, CodeNotReady, "The dead cannot speak.")
	}
	m.toRoom(p.RoomID, EventRoomChat, ChatData{FromID: p.ID, From: p.Name, Text: text})
	return nil
}

// Describe returns the view of the room the player stands in.
func (m *Match) Describe(playerID string) (RoomView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return RoomView{}, ErrNotInMatch
	}
	view, ok := m.describe(p.RoomID)
	if !ok {
		return RoomView{}, Errorf(KindReference, CodeUnknownRoom, "Room %q does not exist.", p.RoomID)
	}
	return view, nil
}

// SendRoomInfo pushes a room-update to the player.
func (m *Match) SendRoomInfo(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return ErrNotInMatch
	}
	m.sendRoom(p)
	return nil
}

// Status returns the match as seen by one of its players.
func (m *Match) Status(playerID string) (MatchStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[playerID]; !ok {
		return MatchStatus{}, ErrNotInMatch
	}
	return m.status(playerID), nil
}

// SendStatus pushes a match-status to the player.
func (m *Match) SendStatus(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[playerID]; !ok {
		return ErrNotInMatch
	}
	m.toPlayer(playerID, EventMatchStatus, m.status(playerID))
	return nil
}

func (m *Match) status(playerID string) MatchStatus {
	st := MatchStatus{
		MatchID:    m.id,
		State:      m.state,
		Players:    []PlayerView{},
		MaxPlayers: m.rules.MaxPlayersPerMatch,
		MinPlayers: m.rules.MinPlayersToStart,
		WinnerID:   m.winner,
	}
	for _, id := range m.joinOrder {
		p := m.players[id]
		st.Players = append(st.Players, p.view())
		if p.Alive() {
			st.Alive++
		}
	}
	if m.state == StateCountdown {
		st.CountdownRemaining = m.countdown
	}
	if !m.startedAt.IsZero() {
		started := m.startedAt
		st.StartedAt = &started
	}
	if p, ok := m.players[playerID]; ok {
		you := p.view()
		st.You = &you
		if p.Alive() {
			if view, ok := m.describe(p.RoomID); ok {
				st.Room = &view
			}
		}
	}
	return st
}

// Summary is the public overview of a match.
type Summary struct {
	ID         string     `json:"id"`
	State      State      `json:"state"`
	Players    int        `json:"players"`
	Alive      int        `json:"alive"`
	MaxPlayers int        `json:"maxPlayers"`
	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Duration   string     `json:"duration,omitempty"`
	WinnerID   string     `json:"winnerId,omitempty"`
	WinnerName string     `json:"winnerName,omitempty"`
	Reason     EndReason  `json:"reason,omitempty"`
}

func (m *Match) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		ID:         m.id,
		State:      m.state,
		Players:    len(m.players),
		MaxPlayers: m.rules.MaxPlayersPerMatch,
		CreatedAt:  m.createdAt,
		WinnerID:   m.winner,
		Reason:     m.reason,
	}
	for _, p := range m.players {
		if p.Alive() {
			s.Alive++
		}
	}
	if w, ok := m.players[m.winner]; ok {
		s.WinnerName = w.Name
	} else {
		for _, d := range m.departed {
			if d.PlayerID == m.winner && m.winner != "" {
				s.WinnerName = d.Name
			}
		}
	}
	if !m.startedAt.IsZero() {
		started := m.startedAt
		s.StartedAt = &started
		end := m.clock.Now()
		if m.state == StateFinished {
			finished := m.finishedAt
			s.FinishedAt = &finished
			end = finished
		}
		s.Duration = end.Sub(started).Round(time.Second).String()
	}
	return s
}

// RoomSnapshot is a copy of one room's mutable state.
type RoomSnapshot struct {
	Players   []string
	Weapon    *WeaponInstance
	RespawnAt time.Time
}

// Snapshot is a consistent copy of the whole match.
type Snapshot struct {
	ID        string
	State     State
	Winner    string
	Reason    EndReason
	Players   map[string]Player
	Rooms     map[string]RoomSnapshot
	Standings []Standing
}

// Snapshot copies the match under its lock.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		ID:        m.id,
		State:     m.state,
		Winner:    m.winner,
		Reason:    m.reason,
		Players:   make(map[string]Player, len(m.players)),
		Rooms:     make(map[string]RoomSnapshot, len(m.graph.rooms)),
		Standings: m.standings(),
	}
	for id, p := range m.players {
		s.Players[id] = *p
	}
	for _, id := range m.graph.RoomIDs() {
		rs := RoomSnapshot{Players: m.graph.Players(id)}
		rs.Weapon, _ = m.graph.Weapon(id)
		rs.RespawnAt, _ = m.graph.RespawnAt(id)
		s.Rooms[id] = rs
	}
	return s
}

// Close stops every timer and drops all subscriptions. The match must not be
// used afterwards.
func (m *Match) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.cancelAllTimers()
	for _, p := range m.players {
		m.pub.Unsubscribe(RoomScope(m.id, p.RoomID), p.ID)
		m.pub.Unsubscribe(MatchScope(m.id), p.ID)
	}
}

func (m *Match) describe(roomID string) (RoomView, bool) {
	return m.graph.Describe(roomID, func(id string) (PlayerBrief, bool) {
		p, ok := m.players[id]
		if !ok {
			return PlayerBrief{}, false
		}
		return p.brief(), true
	})
}

func (m *Match) sendRoom(p *Player) {
	if !p.Alive() {
		return
	}
	if view, ok := m.describe(p.RoomID); ok {
		m.toPlayer(p.ID, EventRoomUpdate, view)
	}
}

func (m *Match) standing(p *Player) Standing {
	return Standing{
		PlayerID: p.ID,
		Name:     p.Name,
		Kills:    p.Kills,
		Strength: p.Strength,
		Alive:    p.Alive(),
	}
}

func (m *Match) standings() []Standing {
	out := make([]Standing, 0, len(m.players)+len(m.departed))
	for _, id := range m.joinOrder {
		out = append(out, m.standing(m.players[id]))
	}
	out = append(out, m.departed...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Alive != out[j].Alive {
			return out[i].Alive
		}
		return out[i].Kills > out[j].Kills
	})
	return out
}

func (m *Match) event(t EventType, data any) Event {
	m.seq++
	return Event{Type: t, MatchID: m.id, Seq: m.seq, Time: m.clock.Now(), Data: data}
}

func (m *Match) broadcast(t EventType, data any, exclude ...string) {
	m.pub.Publish(MatchScope(m.id), m.event(t, data), exclude...)
}

func (m *Match) toRoom(roomID string, t EventType, data any, exclude ...string) {
	m.pub.Publish(RoomScope(m.id, roomID), m.event(t, data), exclude...)
}

func (m *Match) toPlayer(playerID string, t EventType, data any) {
	m.pub.SendTo(playerID, m.event(t, data))
}
