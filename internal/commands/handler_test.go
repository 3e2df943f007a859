package commands

import (
	"errors"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"

	"github.com/MichelPescina/JogoTesto/internal/dispatch"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewHandler()
	if err != nil {
		t.Fatalf("building handler: %v", err)
	}
	return h
}

func TestHandler_Parse(t *testing.T) {
	h := newTestHandler(t)

	tests := map[string]struct {
		line   string
		exp    *dispatch.Request
		expErr string
	}{
		"join with spaces": {
			line: "join  Sir Robin ",
			exp:  &dispatch.Request{Type: dispatch.CmdJoinMatch, DisplayName: "Sir Robin"},
		},
		"join missing name": {
			line:   "join",
			expErr: "Usage: join <name>",
		},
		"bare direction": {
			line: "n",
			exp:  &dispatch.Request{Type: dispatch.CmdMove, Direction: "n"},
		},
		"go direction": {
			line: "go North",
			exp:  &dispatch.Request{Type: dispatch.CmdMove, Direction: "North"},
		},
		"attack alias": {
			line: "KILL bob",
			exp:  &dispatch.Request{Type: dispatch.CmdAttack, Target: "bob"},
		},
		"fight": {
			line: "fight",
			exp:  &dispatch.Request{Type: dispatch.CmdRespondToCombat, Decision: "attack"},
		},
		"flee": {
			line: "flee",
			exp:  &dispatch.Request{Type: dispatch.CmdEscape},
		},
		"say keeps text": {
			line: "say hello  there",
			exp:  &dispatch.Request{Type: dispatch.CmdChatRoom, Text: "hello  there"},
		},
		"shout": {
			line: "shout anyone?",
			exp:  &dispatch.Request{Type: dispatch.CmdChatLobby, Text: "anyone?"},
		},
		"reconnect": {
			line: "reconnect m1 p1 tok",
			exp:  &dispatch.Request{Type: dispatch.CmdReconnect, MatchID: "m1", PlayerID: "p1", SessionToken: "tok"},
		},
		"reconnect missing token": {
			line:   "reconnect m1 p1",
			expErr: "Usage: reconnect <match> <player> <token>",
		},
		"typo": {
			line:   "serch",
			expErr: `Did you mean "search"?`,
		},
		"gibberish": {
			line:   "xyzzy",
			expErr: `Unknown command "xyzzy".`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := h.Parse(tt.line)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				var userErr *UserError
				testutil.AssertEqual(t, "user error", errors.As(err, &userErr), true)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Request == nil {
				t.Fatal("expected a request")
			}
			testutil.AssertEqual(t, "request", *got.Request, *tt.exp)
		})
	}
}

func TestHandler_LocalActions(t *testing.T) {
	h := newTestHandler(t)

	got, err := h.Parse("quit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "quit", got.Quit, true)

	got, err = h.Parse("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "blank", got.Request == nil && !got.Quit && got.Text == "", true)

	got, err = h.Parse("help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "lists combat", strings.Contains(got.Text, "Combat: attack, fight, flee, search"), true)

	got, err = h.Parse("help kill")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "usage", strings.Contains(got.Text, "Usage: attack <player>"), true)
}

func TestCommand_Validate(t *testing.T) {
	noop := func(map[string]string) Action { return Action{} }

	tests := map[string]struct {
		cmd    *Command
		expErr string
	}{
		"valid": {
			cmd: &Command{Name: "x", build: noop, Inputs: []InputSpec{{Name: "a"}, {Name: "b", Rest: true}}},
		},
		"no name": {
			cmd:    &Command{build: noop},
			expErr: "command name not set",
		},
		"no builder": {
			cmd:    &Command{Name: "x"},
			expErr: "has no builder",
		},
		"rest not last": {
			cmd:    &Command{Name: "x", build: noop, Inputs: []InputSpec{{Name: "a", Rest: true}, {Name: "b"}}},
			expErr: "only the last input",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.expErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}
