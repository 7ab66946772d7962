package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zsx/r3-sub004/value"
)

// Errors raised by a malformed rule program or its data; a failed Parse
// returns them wrapped in an *Error.
var (
	ErrParseRule       = errors.New("invalid PARSE rule")
	ErrParseEnd        = errors.New("unexpected end of PARSE rules")
	ErrParseCommand    = errors.New("PARSE command cannot be used as a variable")
	ErrParseVariable   = errors.New("PARSE variable expected")
	ErrParseSeries     = errors.New("PARSE input must be a series")
	ErrNoValue         = errors.New("word has no value")
	ErrNoCatchForThrow = errors.New("no catch for throw")
	ErrNotDone         = errors.New("reserved for future use (or not yet implemented)")
	ErrUseSplitSimple  = errors.New("PARSE with a string or blank rule is not supported, use SPLIT")
	ErrMemoryLimit     = errors.New("series size limit exceeded")
)

// Error is a fatal parse error, locating the rule item it happened near and
// the frames active at the time.
type Error struct {
	Err   error
	Near  value.Value
	Stack []FrameInfo
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if e.Near != nil {
		sb.WriteString(", near: ")
		sb.WriteString(value.Mold(e.Near))
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// LimitError is raised when a mutation would grow the input past the
// configured series limit.
type LimitError struct {
	Limit int
	Size  int
}

func (le LimitError) Error() string {
	return fmt.Sprintf("%v: %v > %v", ErrMemoryLimit, le.Size, le.Limit)
}

// Is matches ErrMemoryLimit.
func (le LimitError) Is(target error) bool { return target == ErrMemoryLimit }

type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}

func (err haltError) Unwrap() error { return err.error }
