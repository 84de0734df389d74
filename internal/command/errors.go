package command

import (
	"strings"

	"github.com/kevadb/keva-go/internal/server/resp"
)

// CommandError is a client-visible command failure. It renders as a
// RESP Error value whose first token classifies the failure, in the
// style Redis clients expect ("ERR ...", "WRONGTYPE ...").
//
// CommandErrors never terminate a connection; they are replies.
type CommandError struct {
	Prefix  string // classification token, e.g. "ERR"
	Message string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return e.Prefix + " " + e.Message
}

// Is supports errors.Is comparison by prefix and message.
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	if !ok {
		return false
	}
	return e.Prefix == t.Prefix && e.Message == t.Message
}

// Reply returns the error as a RESP Error value.
func (e *CommandError) Reply() resp.Value {
	return resp.NewError(e.Error())
}

// NewCommandError creates a CommandError with the given classification
// prefix and message.
func NewCommandError(prefix, message string) *CommandError {
	return &CommandError{Prefix: prefix, Message: message}
}

var (
	// ErrSyntax reports an unrecognized or misplaced option token.
	ErrSyntax = NewCommandError("ERR", "syntax error")

	// ErrNotInteger reports a numeric argument that failed to parse.
	ErrNotInteger = NewCommandError("ERR", "value is not an integer or out of range")

	// ErrInvalidCursor reports a SCAN cursor that failed to parse.
	ErrInvalidCursor = NewCommandError("ERR", "invalid cursor")
)

// errWrongArity reports a call with the wrong number of arguments.
func errWrongArity(name string) *CommandError {
	return NewCommandError("ERR", "wrong number of arguments for '"+name+"' command")
}

// errUnknownCommand reports a command name outside the table.
func errUnknownCommand(name string) *CommandError {
	return NewCommandError("ERR", "unknown command '"+name+"'")
}

// errInvalidExpire reports an expiration duration that is not
// positive or is too large to represent.
func errInvalidExpire(name string) *CommandError {
	return NewCommandError("ERR", "invalid expire time in '"+strings.ToLower(name)+"' command")
}
