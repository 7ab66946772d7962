package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zsx/r3-sub004/internal/runeio"
)

// Molder may be implemented by values defined outside this package to
// control their molded form.
type Molder interface {
	Mold() string
}

// Mold returns the loadable source form of v.
func Mold(v Value) string {
	var sb strings.Builder
	mold(&sb, v, false)
	return sb.String()
}

// Form returns the display form of v: strings without delimiters or
// escapes, blocks without brackets.
func Form(v Value) string {
	var sb strings.Builder
	mold(&sb, v, true)
	return sb.String()
}

func mold(sb *strings.Builder, v Value, form bool) {
	switch v := v.(type) {
	case nil:
		sb.WriteString("#[void]")
	case Blank:
		sb.WriteString("_")
	case Bar:
		sb.WriteString("|")
	case Logic:
		sb.WriteString(strconv.FormatBool(bool(v)))
	case Integer:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Char:
		if form {
			sb.WriteRune(rune(v))
			break
		}
		sb.WriteString(`#"`)
		runeio.WriteEscaped(sb, string(rune(v)), '"')
		sb.WriteByte('"')
	case String:
		moldString(sb, v, form)
	case Binary:
		sb.WriteString("#{")
		fmt.Fprintf(sb, "%X", v.Bytes())
		sb.WriteByte('}')
	case Bitset:
		moldBitset(sb, v)
	case Block:
		moldArray(sb, v, form)
	case Word:
		switch v.K {
		case KindSetWord:
			sb.WriteString(v.Spelling)
			sb.WriteByte(':')
		case KindGetWord:
			sb.WriteByte(':')
			sb.WriteString(v.Spelling)
		case KindLitWord:
			sb.WriteByte('\'')
			sb.WriteString(v.Spelling)
		case KindRefinement:
			sb.WriteByte('/')
			sb.WriteString(v.Spelling)
		default:
			sb.WriteString(v.Spelling)
		}
	case Datatype:
		sb.WriteString(v.T.String())
	case Typeset:
		if v.Name != "" {
			sb.WriteString(v.Name)
			break
		}
		sb.WriteString("make typeset! [")
		first := true
		for _, k := range Kinds() {
			if v.Has(k) {
				if !first {
					sb.WriteByte(' ')
				}
				first = false
				sb.WriteString(k.String())
			}
		}
		sb.WriteByte(']')
	case Molder:
		sb.WriteString(v.Mold())
	default:
		fmt.Fprintf(sb, "#[%v]", v.Kind())
	}
}

func moldString(sb *strings.Builder, s String, form bool) {
	text := s.Text()
	switch s.K {
	case KindTag:
		sb.WriteByte('<')
		sb.WriteString(text)
		sb.WriteByte('>')
	case KindEmail:
		sb.WriteString(text)
	case KindFile:
		if !form {
			sb.WriteByte('%')
		}
		sb.WriteString(text)
	default:
		if form {
			sb.WriteString(text)
			break
		}
		sb.WriteByte('"')
		runeio.WriteEscaped(sb, text, '"')
		sb.WriteByte('"')
	}
}

func moldArray(sb *strings.Builder, b Block, form bool) {
	vals := b.Values()
	sep := " "
	switch b.K {
	case KindBlock:
		if !form {
			sb.WriteByte('[')
		}
	case KindGroup:
		sb.WriteByte('(')
	case KindGetPath:
		sb.WriteByte(':')
		sep = "/"
	case KindLitPath:
		sb.WriteByte('\'')
		sep = "/"
	case KindPath, KindSetPath:
		sep = "/"
	}
	for i, v := range vals {
		if i > 0 {
			sb.WriteString(sep)
		}
		mold(sb, v, form && b.K == KindBlock)
	}
	switch b.K {
	case KindBlock:
		if !form {
			sb.WriteByte(']')
		}
	case KindGroup:
		sb.WriteByte(')')
	case KindSetPath:
		sb.WriteByte(':')
	}
}

// moldBitset writes the bits most significant first the way binary! does,
// bit n being byte n/8 under mask 0x80>>n%8.
func moldBitset(sb *strings.Builder, bs Bitset) {
	members := bs.Members()
	var bits []byte
	if n := len(members); n > 0 {
		bits = make([]byte, members[n-1]/8+1)
		for _, r := range members {
			bits[r/8] |= 0x80 >> uint(r%8)
		}
	}
	sb.WriteString("make bitset! ")
	if bs.Negated {
		sb.WriteString("[not bits ")
	}
	fmt.Fprintf(sb, "#{%X}", bits)
	if bs.Negated {
		sb.WriteByte(']')
	}
}
