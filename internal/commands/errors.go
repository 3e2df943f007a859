package commands

import "fmt"

// UserError is bad terminal input: an unknown command or missing arguments.
// Its message is shown to the player as is and the session carries on.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func NewUserError(msg string) *UserError {
	return &UserError{Message: msg}
}

// UserErrorf formats a user-facing error.
func UserErrorf(format string, args ...any) *UserError {
	return NewUserError(fmt.Sprintf(format, args...))
}
