package matches

import (
	"context"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/MichelPescina/JogoTesto/internal/clock"
	"github.com/MichelPescina/JogoTesto/internal/game"
	"github.com/MichelPescina/JogoTesto/internal/world"
)

func chance(v float64) *float64 { return &v }

func testCatalog(t *testing.T) *world.Catalog {
	t.Helper()
	c, err := world.NewCatalog(&world.Document{
		DefaultSpawnRoom: "hall",
		Rooms: map[string]*world.RoomSpec{
			"hall": {Name: "Hall", Exits: map[string]string{"east": "yard"}, WeaponSpawnChance: chance(0)},
			"yard": {Name: "Yard", Exits: map[string]string{"west": "hall"}, WeaponSpawnChance: chance(0)},
		},
		Weapons: map[string]*world.WeaponTemplate{
			"club": {Name: "Club", Damage: 1, Rarity: 1},
		},
	})
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	return c
}

func testRules() game.Rules {
	r := game.DefaultRules()
	r.MaxPlayersPerMatch = 2
	r.MinPlayersToStart = 2
	r.CountdownDuration = 3 * time.Second
	r.DisconnectGrace = 30 * time.Second
	return r
}

func newTestRegistry(t *testing.T, opts ...RegistryOpt) (*Registry, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	opts = append([]RegistryOpt{WithClock(clk)}, opts...)
	return NewRegistry(testCatalog(t), testRules(), opts...), clk
}

func mustJoin(t *testing.T, r *Registry, id, name string) *game.Match {
	t.Helper()
	m, _, err := r.Join(context.Background(), id, "tok-"+id, name)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return m
}

func TestRegistry_JoinFillsOldestFirst(t *testing.T) {
	r, _ := newTestRegistry(t)

	m1 := mustJoin(t, r, "a", "Alice")
	m2 := mustJoin(t, r, "b", "Bob")
	m3 := mustJoin(t, r, "c", "Carol")

	testutil.AssertEqual(t, "second joins first match", m2.ID(), m1.ID())
	if m3.ID() == m1.ID() {
		t.Error("third player should get a new match")
	}
	testutil.AssertEqual(t, "count", r.Count(), 2)

	got, ok := r.MatchOf("c")
	testutil.AssertEqual(t, "membership", ok, true)
	testutil.AssertEqual(t, "membership id", got.ID(), m3.ID())
}

func TestRegistry_JoinErrors(t *testing.T) {
	tests := map[string]struct {
		opts    []RegistryOpt
		setup   func(t *testing.T, r *Registry)
		name    string
		expCode string
		expN    int
	}{
		"invalid name creates nothing": {
			name:    "<bad>",
			expCode: game.CodeInvalidName,
		},
		"server full": {
			opts: []RegistryOpt{WithMaxMatches(1)},
			setup: func(t *testing.T, r *Registry) {
				mustJoin(t, r, "a", "Alice")
				mustJoin(t, r, "b", "Bob")
			},
			name:    "Carol",
			expCode: game.CodeServerFull,
			expN:    1,
		},
		"name clash goes to a new match": {
			setup: func(t *testing.T, r *Registry) {
				mustJoin(t, r, "a", "Alice")
			},
			name: "ALICE",
			expN: 2,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r, _ := newTestRegistry(t, tt.opts...)
			if tt.setup != nil {
				tt.setup(t, r)
			}

			_, _, err := r.Join(context.Background(), "x", "tok-x", tt.name)
			testutil.AssertEqual(t, "code", game.CodeOf(err), tt.expCode)
			testutil.AssertEqual(t, "matches", r.Count(), tt.expN)
		})
	}
}

func TestRegistry_RejoinIsIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	m1 := mustJoin(t, r, "a", "Alice")

	m2, res, err := r.Join(context.Background(), "a", "tok-a", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "same match", m2.ID(), m1.ID())
	testutil.AssertEqual(t, "existing", res.Existing, true)
	testutil.AssertEqual(t, "players", m1.PlayerCount(), 1)
}

func TestRegistry_Leave(t *testing.T) {
	r, _ := newTestRegistry(t)
	m := mustJoin(t, r, "a", "Alice")

	if err := r.Leave("a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, ok := r.MatchOf("a")
	testutil.AssertEqual(t, "membership gone", ok, false)
	testutil.AssertEqual(t, "match empty", m.PlayerCount(), 0)
	testutil.AssertEqual(t, "second leave", game.CodeOf(r.Leave("a")), game.CodeNotInMatch)
}

func TestRegistry_TickRemovesEmptyMatch(t *testing.T) {
	r, clk := newTestRegistry(t)
	mustJoin(t, r, "a", "Alice")
	_ = r.Leave("a")

	clk.Advance(29 * time.Second)
	_ = r.Tick(context.Background())
	testutil.AssertEqual(t, "kept inside grace", r.Count(), 1)

	clk.Advance(time.Second)
	_ = r.Tick(context.Background())
	testutil.AssertEqual(t, "removed after grace", r.Count(), 0)
}

func TestRegistry_TickRetainsFinished(t *testing.T) {
	r, clk := newTestRegistry(t, WithRetention(2*time.Minute))
	m := mustJoin(t, r, "a", "Alice")
	mustJoin(t, r, "b", "Bob")

	clk.Advance(3 * time.Second)
	testutil.AssertEqual(t, "active", m.State(), game.StateActive)

	r.Shutdown(context.Background())
	testutil.AssertEqual(t, "finished", m.State(), game.StateFinished)

	clk.Advance(time.Minute)
	_ = r.Tick(context.Background())
	testutil.AssertEqual(t, "listed during retention", len(r.Summaries()), 1)

	clk.Advance(time.Minute)
	_ = r.Tick(context.Background())
	testutil.AssertEqual(t, "removed", r.Count(), 0)
	_, ok := r.MatchOf("a")
	testutil.AssertEqual(t, "membership swept", ok, false)
}

func TestRegistry_JoinAfterFinishedStartsFresh(t *testing.T) {
	r, clk := newTestRegistry(t)
	m := mustJoin(t, r, "a", "Alice")
	mustJoin(t, r, "b", "Bob")
	clk.Advance(3 * time.Second)
	m.Finish(game.EndShutdown)

	next := mustJoin(t, r, "a", "Alice")
	if next.ID() == m.ID() {
		t.Error("a finished match must not be rejoined")
	}
	testutil.AssertEqual(t, "left finished match", m.HasPlayer("a"), false)
	testutil.AssertEqual(t, "standing kept", len(m.Snapshot().Standings), 2)
}

func TestRegistry_RejoinAfterWinHoldsOneRecord(t *testing.T) {
	r, clk := newTestRegistry(t)
	old := mustJoin(t, r, "a", "Alice")
	mustJoin(t, r, "b", "Bob")
	clk.Advance(3 * time.Second)
	testutil.AssertEqual(t, "active", old.State(), game.StateActive)

	if err := r.Leave("b"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	testutil.AssertEqual(t, "finished", old.State(), game.StateFinished)
	testutil.AssertEqual(t, "winner", old.Summary().WinnerID, "a")

	fresh, _, err := r.Join(context.Background(), "a", "tok-a2", "Alice")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	testutil.AssertEqual(t, "new match", fresh.ID() != old.ID(), true)

	holding := 0
	for _, id := range []string{old.ID(), fresh.ID()} {
		m, ok := r.Lookup(id)
		if ok && m.HasPlayer("a") {
			holding++
		}
	}
	testutil.AssertEqual(t, "matches holding a", holding, 1)
	testutil.AssertEqual(t, "winner name kept", old.Summary().WinnerName, "Alice")

	current, ok := r.MatchOf("a")
	testutil.AssertEqual(t, "membership", ok, true)
	testutil.AssertEqual(t, "membership match", current.ID(), fresh.ID())
}

func TestRegistry_Adopt(t *testing.T) {
	r, _ := newTestRegistry(t)
	m := mustJoin(t, r, "a", "Alice")

	testutil.AssertEqual(t, "unknown match", game.CodeOf(r.Adopt("a", "nope")), game.CodeUnknownMatch)
	testutil.AssertEqual(t, "stranger", game.CodeOf(r.Adopt("z", m.ID())), game.CodeSessionInvalid)
	testutil.AssertEqual(t, "member", game.CodeOf(r.Adopt("a", m.ID())), "")
}
