package commands

import (
	"fmt"
	"strings"

	"github.com/MichelPescina/JogoTesto/internal/dispatch"
)

// InputSpec describes one argument a command takes from the line.
type InputSpec struct {
	Name     string
	Required bool
	Rest     bool // If true, captures all remaining input
}

// Command is one terminal verb.
type Command struct {
	Name        string
	Aliases     []string
	Category    string
	Description string
	Inputs      []InputSpec

	// build turns the parsed inputs into an action.
	build func(in map[string]string) Action
}

// Action is what a terminal should do for one input line. Exactly one of
// Request, Quit and Text is set.
type Action struct {
	Request *dispatch.Request
	Quit    bool
	Text    string
}

// Usage renders the command's argument line.
func (c *Command) Usage() string {
	parts := []string{c.Name}
	for _, input := range c.Inputs {
		if input.Required {
			parts = append(parts, fmt.Sprintf("<%s>", input.Name))
		} else {
			parts = append(parts, fmt.Sprintf("[%s]", input.Name))
		}
	}
	return strings.Join(parts, " ")
}

func (c *Command) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("command name not set")
	}
	if c.build == nil {
		return fmt.Errorf("command %q has no builder", c.Name)
	}
	for i, input := range c.Inputs {
		if input.Name == "" {
			return fmt.Errorf("command %q input %d: name is required", c.Name, i)
		}
		if input.Rest && i != len(c.Inputs)-1 {
			return fmt.Errorf("command %q input %q: only the last input may capture the rest", c.Name, input.Name)
		}
	}
	return nil
}

// parseInputs splits args according to the command's inputs.
func (c *Command) parseInputs(args string) (map[string]string, error) {
	out := make(map[string]string, len(c.Inputs))
	rest := strings.TrimSpace(args)
	for _, input := range c.Inputs {
		var val string
		if input.Rest {
			val, rest = rest, ""
		} else {
			val, rest, _ = strings.Cut(rest, " ")
			rest = strings.TrimSpace(rest)
		}
		if val == "" && input.Required {
			return nil, UserErrorf("Usage: %s", c.Usage())
		}
		out[input.Name] = val
	}
	return out, nil
}

func request(req dispatch.Request) Action {
	return Action{Request: &req}
}

// builtins is the terminal vocabulary. Movement by bare direction word is
// handled by the parser.
func builtins() []*Command {
	return []*Command{
		{
			Name: "join", Category: "match",
			Description: "Join the next open match under the given name.",
			Inputs:      []InputSpec{{Name: "name", Required: true, Rest: true}},
			build: func(in map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdJoinMatch, DisplayName: in["name"]})
			},
		},
		{
			Name: "leave", Category: "match",
			Description: "Leave your current match.",
			build: func(map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdLeaveMatch})
			},
		},
		{
			Name: "status", Aliases: []string{"score", "st"}, Category: "match",
			Description: "Show the state of your match.",
			build: func(map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdRequestStatus})
			},
		},
		{
			Name: "rename", Category: "match",
			Description: "Change your display name.",
			Inputs:      []InputSpec{{Name: "name", Required: true, Rest: true}},
			build: func(in map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdRename, NewName: in["name"]})
			},
		},
		{
			Name: "reconnect", Category: "match",
			Description: "Take back a player you lost the connection to.",
			Inputs: []InputSpec{
				{Name: "match", Required: true},
				{Name: "player", Required: true},
				{Name: "token", Required: true},
			},
			build: func(in map[string]string) Action {
				return request(dispatch.Request{
					Type:         dispatch.CmdReconnect,
					MatchID:      in["match"],
					PlayerID:     in["player"],
					SessionToken: in["token"],
				})
			},
		},
		{
			Name: "go", Aliases: []string{"move", "walk"}, Category: "movement",
			Description: "Walk through an exit. Bare directions such as \"n\" work too.",
			Inputs:      []InputSpec{{Name: "direction", Required: true}},
			build: func(in map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdMove, Direction: in["direction"]})
			},
		},
		{
			Name: "look", Aliases: []string{"l"}, Category: "movement",
			Description: "Describe the room you are in.",
			build: func(map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdRequestRoomInfo})
			},
		},
		{
			Name: "search", Category: "combat",
			Description: "Search the room for a weapon.",
			build: func(map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdSearch})
			},
		},
		{
			Name: "attack", Aliases: []string{"kill", "k"}, Category: "combat",
			Description: "Attack a player in your room.",
			Inputs:      []InputSpec{{Name: "player", Required: true, Rest: true}},
			build: func(in map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdAttack, Target: in["player"]})
			},
		},
		{
			Name: "fight", Category: "combat",
			Description: "Stand your ground when attacked.",
			build: func(map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdRespondToCombat, Decision: "attack"})
			},
		},
		{
			Name: "flee", Aliases: []string{"escape", "run"}, Category: "combat",
			Description: "Try to escape a fight through a random exit.",
			build: func(map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdEscape})
			},
		},
		{
			Name: "say", Category: "communication",
			Description: "Speak to the players in your room.",
			Inputs:      []InputSpec{{Name: "message", Required: true, Rest: true}},
			build: func(in map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdChatRoom, Text: in["message"]})
			},
		},
		{
			Name: "shout", Aliases: []string{"ooc"}, Category: "communication",
			Description: "Speak to everyone connected.",
			Inputs:      []InputSpec{{Name: "message", Required: true, Rest: true}},
			build: func(in map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdChatLobby, Text: in["message"]})
			},
		},
		{
			Name: "ping", Category: "other",
			Description: "Check that the server is listening.",
			build: func(map[string]string) Action {
				return request(dispatch.Request{Type: dispatch.CmdPing})
			},
		},
		{
			Name: "quit", Aliases: []string{"exit"}, Category: "other",
			Description: "Disconnect. A player in a match can reconnect for a while.",
			build: func(map[string]string) Action {
				return Action{Quit: true}
			},
		},
	}
}
