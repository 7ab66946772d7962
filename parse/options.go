package parse

import (
	"io"

	"github.com/zsx/r3-sub004/internal/flushio"
)

// Option configures a Parser.
type Option interface{ apply(p *Parser) }

var defaultOptions = Options(
	WithHost(nil),
	WithOutput(nil),
)

type options []Option

// Options combines several options into one, applied in order.
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
	if len(res) == 1 {
		return res[0]
	}
	return res
}

func (opts options) apply(p *Parser) {
	for _, opt := range opts {
		opt.apply(p)
	}
}

type hostOption struct{ Host }
type outputOption struct{ io.Writer }
type caseOption bool
type seriesLimitOption int
type withLogfn func(mess string, args ...interface{})

// WithHost sets the evaluator that rules use for words, paths and groups; a
// nil host allows only literal rules.
func WithHost(h Host) Option { return hostOption{h} }

// WithOutput sets where the ?? diagnostic writes.
func WithOutput(w io.Writer) Option { return outputOption{w} }

// WithCase selects case-sensitive matching, as with PARSE/CASE.
func WithCase(caseSensitive bool) Option { return caseOption(caseSensitive) }

// WithSeriesLimit bounds how large mutation may grow the input; zero means
// no limit.
func WithSeriesLimit(limit int) Option { return seriesLimitOption(limit) }

// WithLogf enables a trace of rule processing.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

func (o hostOption) apply(p *Parser) {
	if o.Host == nil {
		p.host = noHost{}
	} else {
		p.host = o.Host
	}
}

func (o outputOption) apply(p *Parser) {
	if p.out != nil {
		p.out.Flush()
	}
	p.out = flushio.NewWriteFlusher(o.Writer)
}

func (c caseOption) apply(p *Parser)          { p.caseSensitive = bool(c) }
func (lim seriesLimitOption) apply(p *Parser) { p.seriesLimit = int(lim) }
func (logfn withLogfn) apply(p *Parser)       { p.logfn = logfn }
