package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/zsx/r3-sub004/value"
)

type frameDumper struct {
	out   io.Writer
	stack []FrameInfo

	depthWidth int
}

// DumpFrames writes a readable listing of stack, as returned by Frames or
// carried by an *Error, marking the next rule item of each frame.
func DumpFrames(w io.Writer, stack []FrameInfo) {
	frameDumper{out: w, stack: stack}.dump()
}

func (dump frameDumper) dump() {
	fmt.Fprintf(dump.out, "# Parse Frames\n")
	if len(dump.stack) == 0 {
		fmt.Fprintf(dump.out, "  none\n")
		return
	}
	dump.depthWidth = len(fmt.Sprint(dump.stack[len(dump.stack)-1].Depth))
	var buf strings.Builder
	for _, fi := range dump.stack {
		fmt.Fprintf(&buf, "  #%*v rules: ", dump.depthWidth, fi.Depth)
		dump.formatRules(&buf, fi.Rules)
		buf.WriteByte('\n')
		fmt.Fprintf(&buf, "  %*v  input: %v @%v from %v\n",
			dump.depthWidth, "", value.Mold(fi.Input), fi.Input.Pos(), fi.Start)
		io.WriteString(dump.out, buf.String())
		buf.Reset()
	}
}

// formatRules molds the whole rule block with a marker before the item
// at its position.
func (dump frameDumper) formatRules(buf *strings.Builder, rules value.Block) {
	buf.WriteByte('[')
	vals := rules.A.V
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(' ')
		}
		if i == rules.Index {
			buf.WriteString(">>> ")
		}
		buf.WriteString(value.Mold(v))
	}
	if rules.Index >= len(vals) {
		if len(vals) > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(">>>")
	}
	buf.WriteByte(']')
}
