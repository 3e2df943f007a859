package session

import (
	"context"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/MichelPescina/JogoTesto/internal/clock"
	"github.com/MichelPescina/JogoTesto/internal/game"
)

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := NewToken()

	testutil.AssertEqual(t, "length", len(a), 43)
	if a == b {
		t.Error("tokens must differ")
	}
}

func TestRegistry_CreateAndLookup(t *testing.T) {
	r := NewRegistry()

	s, err := r.Create()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.PlayerID == "" || s.Token == "" {
		t.Fatal("session must carry a player id and token")
	}

	got, ok := r.Get(s.Token)
	testutil.AssertEqual(t, "get", ok, true)
	testutil.AssertEqual(t, "player", got.PlayerID, s.PlayerID)

	got, ok = r.ByPlayer(s.PlayerID)
	testutil.AssertEqual(t, "by player", ok, true)
	testutil.AssertEqual(t, "token", got.Token, s.Token)

	_, ok = r.Get("nope")
	testutil.AssertEqual(t, "unknown", ok, false)
	testutil.AssertEqual(t, "count", r.Count(), 1)
}

func TestRegistry_Validate(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create()
	if err := r.Bind(s.Token, "m1", "Alice"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	tests := map[string]struct {
		match   string
		player  string
		token   string
		expCode string
	}{
		"matching triple":  {match: "m1", player: s.PlayerID, token: s.Token},
		"unknown token":    {match: "m1", player: s.PlayerID, token: "forged", expCode: game.CodeSessionInvalid},
		"wrong player":     {match: "m1", player: "someone", token: s.Token, expCode: game.CodeSessionMismatch},
		"wrong match":      {match: "m2", player: s.PlayerID, token: s.Token, expCode: game.CodeSessionMismatch},
		"empty match":      {match: "", player: s.PlayerID, token: s.Token, expCode: game.CodeSessionMismatch},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := r.Validate(tt.match, tt.player, tt.token)
			testutil.AssertEqual(t, "code", game.CodeOf(err), tt.expCode)
		})
	}
}

func TestRegistry_BindUnbind(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create()

	_ = r.Bind(s.Token, "m1", "Alice")
	got, _ := r.Get(s.Token)
	testutil.AssertEqual(t, "match", got.MatchID, "m1")
	testutil.AssertEqual(t, "name", got.Name, "Alice")

	_ = r.Rename(s.Token, "Alicia")
	got, _ = r.Get(s.Token)
	testutil.AssertEqual(t, "renamed", got.Name, "Alicia")

	_ = r.Unbind(s.Token)
	got, _ = r.Get(s.Token)
	testutil.AssertEqual(t, "unbound", got.MatchID, "")

	testutil.AssertEqual(t, "bind unknown", game.CodeOf(r.Bind("nope", "m1", "x")), game.CodeSessionInvalid)
}

func TestRegistry_Invalidate(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create()

	r.Invalidate(s.Token)
	r.Invalidate(s.Token)

	_, ok := r.Get(s.Token)
	testutil.AssertEqual(t, "gone", ok, false)
	_, ok = r.ByPlayer(s.PlayerID)
	testutil.AssertEqual(t, "player gone", ok, false)
}

func TestRegistry_TickExpires(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var expired []string
	r := NewRegistry(
		WithClock(clk),
		WithExpiry(time.Hour),
		WithExpireHook(func(s Session) { expired = append(expired, s.PlayerID) }),
	)

	idle, _ := r.Create()
	busy, _ := r.Create()

	clk.Advance(45 * time.Minute)
	_ = r.Touch(busy.Token)
	clk.Advance(30 * time.Minute)

	if err := r.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, ok := r.Get(idle.Token)
	testutil.AssertEqual(t, "idle expired", ok, false)
	_, ok = r.Get(busy.Token)
	testutil.AssertEqual(t, "busy kept", ok, true)
	testutil.AssertEqual(t, "hook calls", len(expired), 1)
	testutil.AssertEqual(t, "hook player", expired[0], idle.PlayerID)
}
