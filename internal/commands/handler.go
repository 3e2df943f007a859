package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MichelPescina/JogoTesto/internal/dispatch"
	"github.com/MichelPescina/JogoTesto/internal/world"
)

// Handler turns terminal input lines into actions.
type Handler struct {
	commands map[string]*Command
	lookup   map[string]*Command
}

func NewHandler() (*Handler, error) {
	h := &Handler{
		commands: make(map[string]*Command),
		lookup:   make(map[string]*Command),
	}
	for _, cmd := range builtins() {
		if err := h.register(cmd); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Handler) register(cmd *Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	for _, word := range append([]string{cmd.Name}, cmd.Aliases...) {
		if _, ok := h.lookup[word]; ok {
			return fmt.Errorf("command word %q registered twice", word)
		}
		h.lookup[word] = cmd
	}
	h.commands[cmd.Name] = cmd
	return nil
}

// Parse interprets one input line. Rejections a player should see are
// returned as *UserError.
func (h *Handler) Parse(line string) (Action, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Action{}, nil
	}

	word, args, _ := strings.Cut(line, " ")
	word = strings.ToLower(word)

	if word == "help" || word == "?" {
		return Action{Text: h.help(strings.TrimSpace(args))}, nil
	}

	if cmd, ok := h.lookup[word]; ok {
		in, err := cmd.parseInputs(args)
		if err != nil {
			return Action{}, err
		}
		return cmd.build(in), nil
	}

	if strings.TrimSpace(args) == "" {
		if _, ok := world.NormalizeDirection(word); ok {
			return request(dispatch.Request{Type: dispatch.CmdMove, Direction: word}), nil
		}
	}

	msg := fmt.Sprintf("Unknown command %q.", word)
	if s, ok := dispatch.Suggest(word, h.words()); ok {
		msg += fmt.Sprintf(" Did you mean %q?", s)
	}
	return Action{}, NewUserError(msg + ` Type "help" for a list.`)
}

func (h *Handler) words() []string {
	words := make([]string, 0, len(h.lookup))
	for w := range h.lookup {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

func (h *Handler) help(topic string) string {
	if topic != "" {
		return h.showCommand(topic)
	}
	return h.listCommands()
}

// listCommands lists every command grouped by category.
func (h *Handler) listCommands() string {
	groups := make(map[string][]string)
	for name, cmd := range h.commands {
		category := cmd.Category
		if category == "" {
			category = "other"
		}
		groups[category] = append(groups[category], name)
	}

	categories := make([]string, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	lines := []string{"Available commands:"}
	for _, cat := range categories {
		cmds := groups[cat]
		sort.Strings(cmds)
		label := strings.ToUpper(cat[:1]) + cat[1:]
		lines = append(lines, fmt.Sprintf("  %s: %s", label, strings.Join(cmds, ", ")))
	}
	lines = append(lines, `Type "help <command>" for details.`)
	return strings.Join(lines, "\n")
}

// showCommand describes one command.
func (h *Handler) showCommand(name string) string {
	cmd, ok := h.lookup[strings.ToLower(name)]
	if !ok {
		return fmt.Sprintf("Command %q is unknown.", name)
	}

	lines := []string{
		fmt.Sprintf("%s: %s", cmd.Name, cmd.Description),
		fmt.Sprintf("Usage: %s", cmd.Usage()),
	}
	if len(cmd.Aliases) > 0 {
		lines = append(lines, fmt.Sprintf("Also: %s", strings.Join(cmd.Aliases, ", ")))
	}
	return strings.Join(lines, "\n")
}
