package storage

import (
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidatingSpec is implemented by every document loaded from disk.
type ValidatingSpec interface {
	Validate() error
}

type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Valid reports whether the identifier is non-empty and made only of
// letters, digits, dashes and underscores.
func (id Identifier) Valid() bool {
	return identifierPattern.MatchString(string(id))
}
