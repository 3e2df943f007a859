package display

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"

	"github.com/MichelPescina/JogoTesto/internal/game"
)

func encode(t *testing.T, typ game.EventType, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(game.Event{Type: typ, Data: data})
	if err != nil {
		t.Fatalf("encoding event: %v", err)
	}
	return raw
}

func newTestScreen(t *testing.T) *Screen {
	t.Helper()
	s, err := NewScreen(WithWidth(0))
	if err != nil {
		t.Fatalf("creating screen: %v", err)
	}
	if _, err := s.Render(encode(t, game.EventSessionAssigned, game.SessionData{PlayerID: "me", SessionToken: "tok"})); err != nil {
		t.Fatalf("rendering session: %v", err)
	}
	if _, err := s.Render(encode(t, game.EventMatchJoined, game.MatchJoinedData{
		Player: game.PlayerBrief{ID: "bob", Name: "Bob", Status: game.StatusAlive},
	})); err != nil {
		t.Fatalf("rendering join: %v", err)
	}
	return s
}

func TestScreenRender(t *testing.T) {
	bob := game.PlayerBrief{ID: "bob", Name: "Bob", Status: game.StatusAlive}
	me := game.PlayerBrief{ID: "me", Name: "Me", Status: game.StatusAlive}

	tests := map[string]struct {
		typ  game.EventType
		data any
		exp  string
	}{
		"own chat": {
			typ:  game.EventRoomChat,
			data: game.ChatData{FromID: "me", From: "Me", Text: "hi"},
			exp:  "You say: hi",
		},
		"other chat": {
			typ:  game.EventRoomChat,
			data: game.ChatData{FromID: "bob", From: "Bob", Text: "hey"},
			exp:  "Bob says: hey",
		},
		"lobby chat": {
			typ:  game.EventLobbyChat,
			data: game.ChatData{FromID: "bob", From: "Bob", Text: "anyone?"},
			exp:  "[lobby] Bob: anyone?",
		},
		"room": {
			typ: game.EventRoomUpdate,
			data: game.RoomView{
				ID:          "hall",
				Name:        "Great Hall",
				Description: "A vast hall.",
				Exits:       []string{"north", "east"},
				Players: []game.PlayerBrief{
					me,
					{ID: "bob", Name: "Bob", Status: game.StatusSearching},
				},
			},
			exp: "Great Hall\nA vast hall.\nExits: north, east.\nHere: Bob (searching).",
		},
		"empty room": {
			typ:  game.EventRoomUpdate,
			data: game.RoomView{Name: "Cell", Description: "Bare.", Players: []game.PlayerBrief{me}},
			exp:  "Cell\nBare.\nExits: none.",
		},
		"countdown quiet": {
			typ:  game.EventCountdownUpdate,
			data: game.CountdownData{Remaining: 7},
		},
		"countdown loud": {
			typ:  game.EventCountdownUpdate,
			data: game.CountdownData{Remaining: 3},
			exp:  "3...",
		},
		"own arrival hidden": {
			typ:  game.EventPlayerEnteredRoom,
			data: game.RoomMoveData{Player: me, Direction: "south"},
		},
		"arrival": {
			typ:  game.EventPlayerEnteredRoom,
			data: game.RoomMoveData{Player: bob, Direction: "up"},
			exp:  "Bob arrives from above.",
		},
		"departure": {
			typ:  game.EventPlayerLeftRoom,
			data: game.RoomMoveData{Player: bob, Direction: "west"},
			exp:  "Bob leaves to the west.",
		},
		"fight": {
			typ: game.EventCombatResult,
			data: game.CombatResultData{
				Outcome: game.OutcomeFought, AttackerID: "bob", DefenderID: "me",
				WinnerID: "me", LoserID: "bob", AttackerPower: 12, DefenderPower: 15,
			},
			exp: "Bob (12) fought you (15). You won.",
		},
		"flee": {
			typ:  game.EventCombatResult,
			data: game.CombatResultData{Outcome: game.OutcomeEscaped, AttackerID: "me", DefenderID: "bob", RunnerID: "bob"},
			exp:  "Bob fled the fight.",
		},
		"attacked": {
			typ:  game.EventCombatInitiated,
			data: game.CombatInitiatedData{AttackerID: "bob", AttackerName: "Bob", DefenderID: "me", DefenderName: "Me"},
			exp:  `Bob attacks you! Type "fight" or "flee".`,
		},
		"kill credit": {
			typ:  game.EventPlayerDied,
			data: game.PlayerDiedData{Player: bob, KillerID: "me", Cause: "combat"},
			exp:  "Bob died by your hand.",
		},
		"own death": {
			typ:  game.EventPlayerDied,
			data: game.PlayerDiedData{Player: me, KillerID: "bob", Cause: "combat"},
			exp:  "You have died.",
		},
		"search found by other": {
			typ:  game.EventSearchCompleted,
			data: game.SearchData{Player: bob, Found: true, Weapon: &game.WeaponView{Name: "Rusty Sword", Damage: 5}},
			exp:  "Bob picks up Rusty Sword.",
		},
		"own search found": {
			typ:  game.EventSearchCompleted,
			data: game.SearchData{Player: me, Found: true, Weapon: &game.WeaponView{Name: "Rusty Sword", Damage: 5}},
		},
		"weapon found": {
			typ:  game.EventWeaponFound,
			data: game.SearchData{Player: me, Found: true, Weapon: &game.WeaponView{Name: "Rusty Sword", Damage: 5}},
			exp:  "You found Rusty Sword (+5 damage)!",
		},
		"winner": {
			typ: game.EventMatchEnded,
			data: game.MatchEndedData{
				Reason: game.EndLastStanding, WinnerID: "me", WinnerName: "Me", Duration: "2m0s",
				Standings: []game.Standing{
					{PlayerID: "me", Name: "Me", Kills: 1, Alive: true},
					{PlayerID: "bob", Name: "Bob"},
				},
			},
			exp: "The match is over (last-standing). You won after 2m0s.\n1. Me: 1 kills, alive\n2. Bob: 0 kills",
		},
		"no match": {
			typ:  game.EventMatchStatus,
			data: game.MatchStatus{},
			exp:  "You are not in a match.",
		},
		"error": {
			typ:  game.EventError,
			data: game.ErrorData{Code: game.CodeInvalidText, Message: "Say what?"},
			exp:  "Say what?",
		},
		"pong": {
			typ: game.EventPong,
			exp: "pong",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := newTestScreen(t)
			got, err := s.Render(encode(t, tt.typ, tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "text", got, tt.exp)
		})
	}
}

func TestScreenLearnsSelf(t *testing.T) {
	s, err := NewScreen()
	if err != nil {
		t.Fatalf("creating screen: %v", err)
	}
	testutil.AssertEqual(t, "initial", s.Self(), "")

	out, err := s.Render(encode(t, game.EventMatchAssigned, game.MatchAssignedData{MatchID: "m1", PlayerID: "p1", SessionToken: "tok"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "self", s.Self(), "p1")
	testutil.AssertEqual(t, "reconnect hint", strings.Contains(out, "reconnect m1 p1 tok"), true)
}

func TestScreenWraps(t *testing.T) {
	s, err := NewScreen(WithWidth(20))
	if err != nil {
		t.Fatalf("creating screen: %v", err)
	}
	out, err := s.Render(encode(t, game.EventLobbyChat, game.ChatData{FromID: "x", From: "X", Text: "one two three four five six seven"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 20 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	testutil.AssertEqual(t, "lines", strings.Count(out, "\n") > 0, true)
}

func TestScreenRejectsGarbage(t *testing.T) {
	s, err := NewScreen()
	if err != nil {
		t.Fatalf("creating screen: %v", err)
	}
	_, err = s.Render([]byte("not json"))
	testutil.AssertErrorContains(t, err, "decoding event")

	out, err := s.Render([]byte(`{"type":"something-new"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "unknown", out, "")
}
