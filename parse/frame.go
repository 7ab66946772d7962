package parse

import "github.com/zsx/r3-sub004/value"

// frame is one subparse invocation: the rule block it walks and the input
// state held at its entry.
type frame struct {
	rules value.Block
	i     int
	in    *cursor
	start cursor
	depth int
}

func (f *frame) end() bool { return f.i >= len(f.rules.A.V) }

// at returns the next rule item without consuming it, or nil at the end.
func (f *frame) at() value.Value {
	if f.end() {
		return nil
	}
	return f.rules.A.V[f.i]
}

// fetch consumes and returns the next rule item, or nil at the end.
func (f *frame) fetch() value.Value {
	v := f.at()
	if v != nil {
		f.i++
	}
	return v
}

// skipToAlt moves past the next bar, reporting false if there is none.
func (f *frame) skipToAlt() bool {
	for !f.end() {
		v := f.fetch()
		if _, isBar := v.(value.Bar); isBar {
			return true
		}
	}
	return false
}

// FrameInfo is a snapshot of one active subparse.
type FrameInfo struct {
	Depth int
	// Rules is the rule block positioned at the next item to be fetched.
	Rules value.Block
	// Input is the input series positioned at the current match position.
	Input value.Series
	Start int
}

func (f *frame) info() FrameInfo {
	return FrameInfo{
		Depth: f.depth,
		Rules: value.Block{K: f.rules.K, A: f.rules.A, Index: f.i},
		Input: f.in.here(),
		Start: f.start.pos,
	}
}

// Frames returns the active subparse frames, outermost first. It is
// meaningful while a parse is running, e.g. from within a group.
func (p *Parser) Frames() []FrameInfo {
	infos := make([]FrameInfo, len(p.frames))
	for i, f := range p.frames {
		infos[i] = f.info()
	}
	return infos
}
