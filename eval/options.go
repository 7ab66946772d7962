package eval

import (
	"io"

	"github.com/zsx/r3-sub004/internal/flushio"
	"github.com/zsx/r3-sub004/parse"
)

// Option configures an Interp.
type Option interface{ apply(in *Interp) }

var defaultOptions = WithOutput(nil)

type options []Option

// Options combines several options into one.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	return res
}

func (opts options) apply(in *Interp) {
	for _, opt := range opts {
		opt.apply(in)
	}
}

type outputOption []io.Writer
type parseOptions []parse.Option

// WithOutput sets where print, probe and ?? write; output goes to every one
// of ws.
func WithOutput(ws ...io.Writer) Option { return outputOption(ws) }

// WithParseOptions adds options for every parse the Interp runs.
func WithParseOptions(opts ...parse.Option) Option { return parseOptions(opts) }

func (o outputOption) apply(in *Interp) {
	if in.out != nil {
		in.out.Flush()
	}
	wfs := make([]flushio.WriteFlusher, len(o))
	for i, w := range o {
		wfs[i] = flushio.NewWriteFlusher(w)
	}
	in.out = flushio.Tee(wfs...)
}

func (opts parseOptions) apply(in *Interp) {
	in.parseOpts = append(in.parseOpts, opts...)
}
