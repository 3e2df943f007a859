package game

import (
	"time"
)

// EventType names an outbound message.
type EventType string

const (
	EventSessionAssigned    EventType = "session-assigned"
	EventMatchAssigned      EventType = "match-assigned"
	EventMatchJoined        EventType = "match-joined"
	EventMatchLeft          EventType = "match-left"
	EventMatchFull          EventType = "match-full"
	EventMatchStarted       EventType = "match-started"
	EventMatchEnded         EventType = "match-ended"
	EventMatchStatus        EventType = "match-status"
	EventCountdownStarted   EventType = "countdown-started"
	EventCountdownUpdate    EventType = "countdown-update"
	EventCountdownCancelled EventType = "countdown-cancelled"
	EventRoomUpdate         EventType = "room-update"
	EventPlayerEnteredRoom  EventType = "player-entered-room"
	EventPlayerLeftRoom     EventType = "player-left-room"
	EventSearchStarted      EventType = "search-started"
	EventSearchCompleted    EventType = "search-completed"
	EventWeaponFound        EventType = "weapon-found"
	EventCombatInitiated    EventType = "combat-initiated"
	EventCombatResult       EventType = "combat-result"
	EventPlayerDied         EventType = "player-died"
	EventPlayerDisconnected EventType = "player-disconnected"
	EventPlayerReconnected  EventType = "player-reconnected"
	EventPlayerRenamed      EventType = "player-renamed"
	EventRoomChat           EventType = "room-chat-message"
	EventLobbyChat          EventType = "lobby-chat-message"
	EventError              EventType = "error"
	EventServerShutdown     EventType = "server-shutdown"
	EventPong               EventType = "pong"
)

// Event is a plain record delivered to subscribed connections. Seq increases
// monotonically within one match.
type Event struct {
	Type    EventType `json:"type"`
	MatchID string    `json:"matchId,omitempty"`
	Seq     uint64    `json:"seq,omitempty"`
	Time    time.Time `json:"time"`
	Data    any       `json:"data,omitempty"`
}

// Scope addresses a set of connections. The zero Scope is the lobby, a
// Scope with only MatchID is a whole match, and a Scope with both fields is
// one room of one match.
type Scope struct {
	MatchID string
	RoomID  string
}

// LobbyScope addresses every attached connection.
var LobbyScope = Scope{}

// MatchScope addresses every participant of a match.
func MatchScope(matchID string) Scope {
	return Scope{MatchID: matchID}
}

// RoomScope addresses the players present in one room of a match.
func RoomScope(matchID, roomID string) Scope {
	return Scope{MatchID: matchID, RoomID: roomID}
}

func (s Scope) String() string {
	switch {
	case s.MatchID == "":
		return "lobby"
	case s.RoomID == "":
		return "match." + s.MatchID
	default:
		return "match." + s.MatchID + ".room." + s.RoomID
	}
}

// Publisher fans events out to connections. Implementations must not block
// for long: matches publish while holding their lock so that delivery order
// follows admission order.
type Publisher interface {
	Publish(scope Scope, ev Event, exclude ...string)
	SendTo(playerID string, ev Event)
	Subscribe(scope Scope, playerID string)
	Unsubscribe(scope Scope, playerID string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Scope, Event, ...string) {}
func (nopPublisher) SendTo(string, Event)            {}
func (nopPublisher) Subscribe(Scope, string)         {}
func (nopPublisher) Unsubscribe(Scope, string)       {}

// Payloads.

type PlayerView struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Status   Status      `json:"status"`
	Strength int         `json:"strength"`
	Kills    int         `json:"kills"`
	Weapon   *WeaponView `json:"weapon,omitempty"`
}

type WeaponView struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Damage      int    `json:"damage"`
	Description string `json:"description,omitempty"`
}

type RoomView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Exits       []string      `json:"exits"`
	Players     []PlayerBrief `json:"players"`
	Weapon      *WeaponView   `json:"weapon,omitempty"`
}

type PlayerBrief struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

type MatchAssignedData struct {
	MatchID      string `json:"matchId"`
	PlayerID     string `json:"playerId"`
	SessionToken string `json:"sessionToken"`
}

type SessionData struct {
	PlayerID     string `json:"playerId"`
	SessionToken string `json:"sessionToken"`
}

type MatchJoinedData struct {
	Player     PlayerBrief `json:"player"`
	Players    int         `json:"players"`
	MaxPlayers int         `json:"maxPlayers"`
	MinPlayers int         `json:"minPlayers"`
	State      State       `json:"state"`
}

type MatchLeftData struct {
	Player  PlayerBrief `json:"player"`
	Players int         `json:"players"`
}

type CountdownData struct {
	Remaining int `json:"remaining"`
}

type CountdownCancelledData struct {
	Players    int `json:"players"`
	MinPlayers int `json:"minPlayers"`
}

type MatchStartedData struct {
	StartedAt time.Time    `json:"startedAt"`
	EndsBy    time.Time    `json:"endsBy"`
	Players   []PlayerView `json:"players"`
}

type MatchEndedData struct {
	Reason     EndReason  `json:"reason"`
	WinnerID   string     `json:"winnerId,omitempty"`
	WinnerName string     `json:"winnerName,omitempty"`
	Duration   string     `json:"duration"`
	Standings  []Standing `json:"standings"`
}

type Standing struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Kills    int    `json:"kills"`
	Strength int    `json:"strength"`
	Alive    bool   `json:"alive"`
}

type RoomMoveData struct {
	Player    PlayerBrief `json:"player"`
	RoomID    string      `json:"roomId"`
	Direction string      `json:"direction,omitempty"`
}

type SearchData struct {
	Player PlayerBrief `json:"player"`
	Found  bool        `json:"found"`
	Weapon *WeaponView `json:"weapon,omitempty"`
	EndsAt time.Time   `json:"endsAt,omitempty"`
}

type CombatInitiatedData struct {
	AttackerID   string    `json:"attackerId"`
	AttackerName string    `json:"attackerName"`
	DefenderID   string    `json:"defenderId"`
	DefenderName string    `json:"defenderName"`
	Deadline     time.Time `json:"deadline"`
}

// Combat outcomes.
const (
	OutcomeAutoWin   = "auto-win"
	OutcomeFought    = "fought"
	OutcomeEscaped   = "escaped"
	OutcomeEscapeDie = "escape-failed"
	OutcomeCancelled = "cancelled"
)

type CombatResultData struct {
	Outcome       string `json:"outcome"`
	AttackerID    string `json:"attackerId"`
	DefenderID    string `json:"defenderId"`
	WinnerID      string `json:"winnerId,omitempty"`
	LoserID       string `json:"loserId,omitempty"`
	AttackerPower int    `json:"attackerPower,omitempty"`
	DefenderPower int    `json:"defenderPower,omitempty"`
	RunnerID      string `json:"runnerId,omitempty"`
	EscapedTo     string `json:"escapedTo,omitempty"`
}

type PlayerDiedData struct {
	Player   PlayerBrief `json:"player"`
	KillerID string      `json:"killerId,omitempty"`
	Cause    string      `json:"cause"`
}

type ConnectionData struct {
	Player PlayerBrief `json:"player"`
}

type RenamedData struct {
	PlayerID string `json:"playerId"`
	OldName  string `json:"oldName"`
	NewName  string `json:"newName"`
}

type ChatData struct {
	FromID string `json:"fromId"`
	From   string `json:"from"`
	Text   string `json:"text"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ShutdownData struct {
	Reason string `json:"reason"`
}

// MatchStatus is a snapshot of a match as seen by one of its players.
type MatchStatus struct {
	MatchID            string       `json:"matchId"`
	State              State        `json:"state"`
	Players            []PlayerView `json:"players"`
	Alive              int          `json:"alive"`
	MaxPlayers         int          `json:"maxPlayers"`
	MinPlayers         int          `json:"minPlayers"`
	CountdownRemaining int          `json:"countdownRemaining,omitempty"`
	StartedAt          *time.Time   `json:"startedAt,omitempty"`
	WinnerID           string       `json:"winnerId,omitempty"`
	You                *PlayerView  `json:"you,omitempty"`
	Room               *RoomView    `json:"room,omitempty"`
}
