package parse

import (
	"context"
	"errors"

	"github.com/zsx/r3-sub004/value"
)

// Host provides the variables and evaluator that rules reach into. Errors
// returned as a *value.Thrown are user throws; any other error is fatal to
// the parse.
type Host interface {
	// Get returns the value bound to w, and false if it is unset.
	Get(w value.Word) (value.Value, bool)
	Set(w value.Word, v value.Value) error

	GetPath(ctx context.Context, path value.Block) (value.Value, error)
	SetPath(ctx context.Context, path value.Block, v value.Value) error

	// Do evaluates a whole group, returning its last value.
	Do(ctx context.Context, group value.Block) (value.Value, error)

	// DoNext evaluates one expression from the position of block, returning
	// its value and the index just past it.
	DoNext(ctx context.Context, block value.Block) (value.Value, int, error)
}

// ErrNoHost is returned by the default Host for anything needing evaluation.
var ErrNoHost = errors.New("no evaluator available to PARSE")

// noHost has no variables; rules that only hold literals still parse.
type noHost struct{}

func (noHost) Get(value.Word) (value.Value, bool) { return nil, false }
func (noHost) Set(value.Word, value.Value) error  { return ErrNoHost }

func (noHost) GetPath(context.Context, value.Block) (value.Value, error) {
	return nil, ErrNoHost
}

func (noHost) SetPath(context.Context, value.Block, value.Value) error {
	return ErrNoHost
}

func (noHost) Do(context.Context, value.Block) (value.Value, error) {
	return nil, ErrNoHost
}

func (noHost) DoNext(context.Context, value.Block) (value.Value, int, error) {
	return nil, 0, ErrNoHost
}
