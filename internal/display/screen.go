package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

var templateFuncs = sprig.TxtFuncMap()

// Screen turns outbound JSON events into terminal text for one connection.
// It learns player names from the events it sees so that later events
// which only carry ids still read naturally.
type Screen struct {
	mu    sync.Mutex
	width int
	self  string
	names map[string]string
	tmpl  *template.Template
}

type ScreenOpt func(*Screen)

// WithWidth sets the wrap width. Zero disables wrapping.
func WithWidth(w int) ScreenOpt {
	return func(s *Screen) {
		s.width = w
	}
}

func NewScreen(opts ...ScreenOpt) (*Screen, error) {
	s := &Screen{
		width: DefaultWidth,
		names: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	funcs := template.FuncMap{
		"who":    s.who,
		"self":   s.isSelf,
		"others": s.others,
		"cap":    Capitalize,
		"from":   fromPhrase,
		"toward": towardPhrase,
	}
	tmpl, err := template.New("events").Funcs(templateFuncs).Funcs(funcs).Parse(eventTemplates)
	if err != nil {
		return nil, fmt.Errorf("parsing event templates: %w", err)
	}
	s.tmpl = tmpl
	return s, nil
}

// Self returns the player id this screen renders for.
func (s *Screen) Self() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

// Render returns the text for one event. An empty string means the event
// has nothing to show on a terminal.
func (s *Screen) Render(raw []byte) (string, error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decoding event: %w", err)
	}

	var data map[string]any
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch env.Type {
	case "session-assigned", "match-assigned":
		if id, ok := data["playerId"].(string); ok {
			s.self = id
		}
	}
	s.learn(data)

	t := s.tmpl.Lookup(env.Type)
	if t == nil {
		return "", nil
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", env.Type, err)
	}
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return "", nil
	}
	return WrapWidth(out, s.width), nil
}

// namePairs lists id and name keys that appear side by side in payloads.
var namePairs = [][2]string{
	{"id", "name"},
	{"playerId", "name"},
	{"playerId", "newName"},
	{"attackerId", "attackerName"},
	{"defenderId", "defenderName"},
	{"winnerId", "winnerName"},
	{"fromId", "from"},
}

func (s *Screen) learn(v any) {
	switch val := v.(type) {
	case map[string]any:
		for _, pair := range namePairs {
			id, _ := val[pair[0]].(string)
			name, _ := val[pair[1]].(string)
			if id != "" && name != "" {
				s.names[id] = name
			}
		}
		for k, child := range val {
			// Weapons carry id and name too.
			if k == "weapon" {
				continue
			}
			s.learn(child)
		}
	case []any:
		for _, child := range val {
			s.learn(child)
		}
	}
}

func (s *Screen) who(id any) string {
	str, _ := id.(string)
	if str == "" {
		return "someone"
	}
	if str == s.self {
		return "you"
	}
	if name, ok := s.names[str]; ok {
		return name
	}
	return "someone"
}

func (s *Screen) isSelf(id any) bool {
	str, _ := id.(string)
	return str != "" && str == s.self
}

// others lists the names of the given players other than this screen's own,
// noting anyone who is not simply standing around.
func (s *Screen) others(players any) []string {
	list, _ := players.([]any)
	var out []string
	for _, p := range list {
		m, ok := p.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		if id == s.self {
			continue
		}
		name, _ := m["name"].(string)
		if status, _ := m["status"].(string); status != "" && status != "alive" {
			name = fmt.Sprintf("%s (%s)", name, status)
		}
		out = append(out, name)
	}
	return out
}

func fromPhrase(dir any) string {
	switch d, _ := dir.(string); d {
	case "":
		return "from somewhere"
	case "up":
		return "from above"
	case "down":
		return "from below"
	default:
		return "from the " + d
	}
}

func towardPhrase(dir any) string {
	switch d, _ := dir.(string); d {
	case "":
		return "hastily"
	case "up":
		return "upward"
	case "down":
		return "downward"
	default:
		return "to the " + d
	}
}
