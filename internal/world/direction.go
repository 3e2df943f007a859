package world

import (
	"strings"
)

// Direction is a canonical exit label.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Directions lists the canonical directions in display order.
var Directions = []Direction{North, South, East, West, Up, Down}

// Compass letters win over WASD where the two disagree, so "w" is west and
// only "a" and "d" are taken from the WASD layout.
var directionAliases = map[string]Direction{
	"north": North, "n": North, "norte": North,
	"south": South, "s": South, "sul": South, "sur": South,
	"east": East, "e": East, "d": East, "leste": East, "este": East,
	"west": West, "w": West, "a": West, "oeste": West,
	"up": Up, "u": Up, "cima": Up, "arriba": Up,
	"down": Down, "dn": Down, "baixo": Down, "abajo": Down,
}

// NormalizeDirection maps any accepted spelling of a direction to its
// canonical form. A leading "go" is ignored.
func NormalizeDirection(s string) (Direction, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(s, "go "); ok {
		s = strings.TrimSpace(rest)
	}
	d, ok := directionAliases[s]
	return d, ok
}

// DirectionWords returns every accepted spelling, used for suggestions.
func DirectionWords() []string {
	words := make([]string, 0, len(directionAliases))
	for w := range directionAliases {
		words = append(words, w)
	}
	return words
}

func (d Direction) String() string {
	return string(d)
}

func directionIndex(d Direction) int {
	for i, c := range Directions {
		if c == d {
			return i
		}
	}
	return len(Directions)
}

var opposites = map[Direction]Direction{
	North: South, South: North,
	East: West, West: East,
	Up: Down, Down: Up,
}

// Opposite returns the reverse direction, used to say where an arrival came
// from.
func (d Direction) Opposite() Direction {
	return opposites[d]
}
