package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Error is an abnormal goroutine exit recovered by Recover: either a panic,
// carrying its value and stack, or a call to runtime.Goexit.
type Error struct {
	Name   string
	Value  interface{}
	Stack  []byte
	Goexit bool
}

func (e *Error) Error() string { return fmt.Sprint(e) }

// Format supports %+v to append the panic stack.
func (e *Error) Format(f fmt.State, c rune) {
	prefix := ""
	if e.Name != "" {
		prefix = e.Name + " "
	}
	if e.Goexit {
		fmt.Fprintf(f, "%vcalled runtime.Goexit", prefix)
		return
	}
	fmt.Fprintf(f, "%vpanicked: %v", prefix, e.Value)
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\npanic stack: %s", e.Stack)
	}
}

// Unwrap returns the panic value if it was an error.
func (e *Error) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recover runs f in a new goroutine, converting any panic or runtime.Goexit
// inside it into a non-nil *Error return.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		returned := false
		defer func() {
			if returned {
				return
			}
			e := &Error{Name: name}
			if e.Value = recover(); e.Value != nil {
				e.Stack = debug.Stack()
			} else {
				e.Goexit = true
			}
			errch <- e
		}()
		err := f()
		returned = true
		errch <- err
	}()
	return <-errch
}

// IsPanic returns true if err indicates a recovered panic.
func IsPanic(err error) bool {
	var e *Error
	return errors.As(err, &e) && !e.Goexit
}

// IsExit returns true if err indicates a recovered runtime.Goexit.
func IsExit(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Goexit
}

// PanicStack returns the stack trace of a recovered panic, or "".
func PanicStack(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return string(e.Stack)
	}
	return ""
}
