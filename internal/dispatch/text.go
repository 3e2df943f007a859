package dispatch

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/unicode/norm"

	"github.com/MichelPescina/JogoTesto/internal/game"
)

const (
	MaxChatLength = 500

	// suggestThreshold is the lowest Jaro-Winkler score worth suggesting.
	suggestThreshold = 0.8
)

// SanitizeChat normalizes chat text and enforces its bounds. Control and
// format characters are dropped and other whitespace becomes a space.
func SanitizeChat(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFC.String(s) {
		if clean, ok := sanitizeRune(r); ok {
			b.WriteRune(clean)
		}
	}
	text := strings.TrimSpace(b.String())

	if text == "" {
		return "", game.NewError(game.KindValidation, game.CodeInvalidText, "Say what?")
	}
	if utf8.RuneCountInString(text) > MaxChatLength {
		return "", game.Errorf(game.KindValidation, game.CodeInvalidText, "Messages are limited to %d characters.", MaxChatLength)
	}
	return text, nil
}

func sanitizeRune(r rune) (rune, bool) {
	switch {
	case r == '\r':
		return 0, false
	case unicode.IsSpace(r):
		return ' ', true
	case r < 0x20 || r == 0x7f:
		return 0, false
	case unicode.Is(unicode.Cf, r):
		return 0, false
	case unicode.IsControl(r):
		return 0, false
	case !unicode.IsPrint(r):
		return 0, false
	default:
		return r, true
	}
}

// Suggest returns the candidate closest to input, if any is close enough.
func Suggest(input string, candidates []string) (string, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "", false
	}

	best, bestScore := "", 0.0
	for _, c := range candidates {
		score := matchr.JaroWinkler(input, strings.ToLower(c), false)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < suggestThreshold {
		return "", false
	}
	return best, true
}

// withSuggestion appends a "did you mean" hint to a typed rejection.
func withSuggestion(err error, input string, candidates []string) error {
	gerr, ok := game.AsError(err)
	if !ok {
		return err
	}
	s, ok := Suggest(input, candidates)
	if !ok {
		return err
	}
	return game.NewError(gerr.Kind, gerr.Code, fmt.Sprintf("%s Did you mean %q?", gerr.Message, s))
}
