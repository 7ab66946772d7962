package fileinput

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Location names a rune position in an Input source.
type Location struct {
	Name string
	Line int
	Col  int
}

func (loc Location) String() string {
	if loc.Col > 0 {
		return fmt.Sprintf("%v:%v:%v", loc.Name, loc.Line, loc.Col)
	}
	return fmt.Sprintf("%v:%v", loc.Name, loc.Line)
}

// Line combines a Location with the text scanned so far on that line.
type Line struct {
	Location
	bytes.Buffer
}

func (il *Line) String() string { return fmt.Sprintf("%v %q", il.Location, il.Buffer.String()) }

// Input implements sequential rune reading through a Queue of one or more
// source streams, tracking the location of the last rune read. Both the
// current and the last completed line are kept for error reporting.
type Input struct {
	Queue []io.Reader

	rr   io.RuneReader
	src  io.Reader
	at   Location
	nl   bool
	Last Line
	Scan Line
}

// NewString returns an Input reading from a single named string.
func NewString(name, s string) *Input {
	return &Input{Queue: []io.Reader{Named(name, strings.NewReader(s))}}
}

// Location returns the location of the last rune read.
func (in *Input) Location() Location { return in.at }

// ReadRune reads one rune from the current source, moving on to the next
// queued source at end of stream. Returns io.EOF once every source is
// exhausted.
func (in *Input) ReadRune() (rune, int, error) {
	for {
		if in.rr == nil && !in.nextIn() {
			return 0, 0, io.EOF
		}
		r, n, err := in.rr.ReadRune()
		if err == io.EOF {
			in.closeIn()
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		if in.nl {
			in.at.Line++
			in.at.Col = 0
			in.nl = false
		}
		in.at.Col++
		if r == '\n' {
			in.nl = true
			in.nextLine()
		} else {
			in.Scan.WriteRune(r)
		}
		return r, n, nil
	}
}

func (in *Input) nextLine() {
	in.Last.Reset()
	in.Last.Location = in.Scan.Location
	in.Last.Write(in.Scan.Bytes())
	in.Scan.Reset()
	in.Scan.Line++
}

func (in *Input) closeIn() {
	if cl, ok := in.src.(io.Closer); ok {
		cl.Close()
	}
	in.rr, in.src = nil, nil
}

func (in *Input) nextIn() bool {
	if len(in.Queue) == 0 {
		return false
	}
	if in.Scan.Len() > 0 {
		in.nextLine()
	}
	r := in.Queue[0]
	in.Queue = in.Queue[1:]
	in.src = r
	if rr, ok := r.(io.RuneReader); ok {
		in.rr = rr
	} else {
		in.rr = bufio.NewReader(r)
	}
	in.at = Location{Name: nameOf(r), Line: 1}
	in.nl = false
	in.Scan.Location = Location{Name: in.at.Name, Line: 1}
	return true
}

// Named attaches a name to r for use in Locations.
func Named(name string, r io.Reader) io.Reader {
	return namedReader{r, name}
}

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func (nr namedReader) Close() error {
	if cl, ok := nr.Reader.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
