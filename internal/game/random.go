package game

import "math/rand/v2"

// Random is the source of every chance roll in a match.
type Random interface {
	// Float64 returns a uniform draw in [0,1).
	Float64() float64
	// IntN returns a uniform draw in [0,n).
	IntN(n int) int
}

type defaultRandom struct{}

func (defaultRandom) Float64() float64 { return rand.Float64() }
func (defaultRandom) IntN(n int) int   { return rand.IntN(n) }
