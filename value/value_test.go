package value

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbols(t *testing.T) {
	a := Intern("Foo")
	assert.Equal(t, a, Intern("foo"))
	assert.Equal(t, a, Lookup("FOO"))
	assert.Equal(t, "foo", a.String())
	assert.Equal(t, Sym(0), Lookup("never-interned-spelling"))

	var wg sync.WaitGroup
	syms := make([]Sym, 8)
	for i := range syms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			syms[i] = Intern("concurrent")
		}(i)
	}
	wg.Wait()
	for _, sym := range syms {
		assert.Equal(t, syms[0], sym)
	}
}

func TestKinds(t *testing.T) {
	assert.True(t, KindTag.IsString())
	assert.False(t, KindBinary.IsString())
	assert.True(t, KindBinary.IsSeries())
	assert.True(t, KindLitPath.IsArray())
	assert.True(t, KindLitPath.IsPath())
	assert.False(t, KindBlock.IsPath())
	assert.True(t, KindRefinement.IsWord())
	assert.False(t, KindBitset.IsSeries())
	assert.Equal(t, "set-path!", KindSetPath.String())
	for _, k := range Kinds() {
		assert.True(t, AnyValue.Has(k), "any-value! has %v", k)
	}
	assert.True(t, AnySeries.Has(KindGroup))
	assert.False(t, AnySeries.Has(KindWord))

	v, ok := LookupType("integer!")
	require.True(t, ok)
	assert.Equal(t, Datatype{KindInteger}, v)
	v, ok = LookupType("any-string!")
	require.True(t, ok)
	assert.True(t, v.(Typeset).Has(KindTag))
	_, ok = LookupType("integer")
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	for _, tc := range []struct {
		a, b      Value
		equal     bool
		equalCase bool
	}{
		{Integer(1), Integer(1), true, true},
		{Integer(1), Char(1), false, false},
		{Char('a'), Char('A'), true, false},
		{NewString("abc"), NewString("ABC"), true, false},
		{NewString("abc"), NewTypedString(KindFile, "abc"), false, false},
		{NewBinary([]byte("ab")), NewBinary([]byte("ab")), true, true},
		{NewWord(KindWord, "foo"), NewWord(KindWord, "FOO"), true, false},
		{NewWord(KindWord, "foo"), NewWord(KindSetWord, "foo"), false, false},
		{NewBlock(Integer(1), NewString("x")), NewBlock(Integer(1), NewString("X")), true, false},
		{NewBlock(Integer(1)), NewBlock(Integer(1), Integer(2)), false, false},
		{Datatype{KindInteger}, Datatype{KindInteger}, true, true},
		{Blank{}, Blank{}, true, true},
		{Logic(true), Logic(false), false, false},
		{AnyWord, AnyWord, true, true},
	} {
		assert.Equal(t, tc.equal, Equal(tc.a, tc.b, false), "%v = %v", Mold(tc.a), Mold(tc.b))
		assert.Equal(t, tc.equalCase, Equal(tc.a, tc.b, true), "%v == %v", Mold(tc.a), Mold(tc.b))
	}

	// series compare from their positions
	s := NewString("xabc")
	assert.True(t, Equal(s.At(1), NewString("abc"), true))
}

func TestSeries_splice(t *testing.T) {
	s := NewString("abc")
	require.NoError(t, s.S.Splice(1, 2, []rune("BB")))
	assert.Equal(t, "aBBc", s.Text())
	require.NoError(t, s.S.Splice(3, 99, nil))
	assert.Equal(t, "aBB", s.Text())
	require.NoError(t, s.S.Splice(5, 5, []rune("!")))
	assert.Equal(t, "aBB!", s.Text(), "splice start clamps to the tail")

	b := NewBlock(Integer(1), Integer(2))
	view := b.At(1).(Block)
	require.NoError(t, b.A.Splice(0, 1, nil))
	assert.Equal(t, 1, view.Length(), "views share the backing store")
	assert.Empty(t, view.Values(), "view past the tail")
}

func TestSeries_hold(t *testing.T) {
	inner := NewBlock(Integer(1))
	str := NewString("x")
	bin := NewBinary([]byte{1})
	outer := NewBlock(inner, NewArray(KindGroup, str), NewArray(KindPath, bin), str)

	release := HoldDeep(outer)
	assert.Equal(t, ErrLocked, outer.A.Splice(0, 0, []Value{Blank{}}))
	assert.Equal(t, ErrLocked, inner.A.Splice(0, 1, nil))
	assert.Equal(t, ErrLocked, str.S.Splice(0, 0, []rune("y")), "string in a group")
	assert.Equal(t, ErrLocked, bin.B.Splice(0, 0, []byte{2}), "binary in a path")

	release2 := HoldDeep(inner)
	release()
	assert.Equal(t, ErrLocked, inner.A.Splice(0, 1, nil), "still held by the second holder")
	assert.NoError(t, outer.A.Splice(0, 0, []Value{Blank{}}))
	release2()
	assert.NoError(t, inner.A.Splice(0, 1, nil))
	assert.NoError(t, str.S.Splice(0, 0, []rune("y")))
	assert.NoError(t, bin.B.Splice(0, 0, []byte{2}))
}

func TestCopy(t *testing.T) {
	s := NewString("hello").At(2).(String)
	c := Copy(s).(String)
	assert.Equal(t, "llo", c.Text())
	assert.Equal(t, 0, c.Index)
	assert.False(t, SameSeries(s, c))
	assert.True(t, SameSeries(s, s.At(0)))
}

func TestBitset(t *testing.T) {
	bs := NewBitset()
	bs.SetString("abc")
	bs.SetRange('0', '9')
	assert.True(t, bs.Has('b'))
	assert.True(t, bs.Has('5'))
	assert.False(t, bs.Has('B'))
	assert.True(t, bs.HasFold('B'))
	assert.False(t, bs.HasFold('z'))

	not := bs.Complement()
	assert.False(t, not.Has('b'))
	assert.True(t, not.Has('z'))
	assert.False(t, EqualBitset(bs, not))
	assert.False(t, not.HasFold('B'), "a case variant is a member")
	assert.True(t, not.HasFold('z'))

	top := NewBitset()
	top.SetRange(math.MaxInt32-1, math.MaxInt32)
	top.SetRange('b', 'a')
	assert.True(t, top.Has(math.MaxInt32))
	assert.Equal(t, []rune{math.MaxInt32 - 1, math.MaxInt32}, top.Members())

	other := NewBitset()
	other.SetString("cba0123456789")
	assert.True(t, Equal(bs, other, true))
}

func TestMold(t *testing.T) {
	path := NewArray(KindPath, NewWord(KindWord, "a"), Integer(2))
	for _, tc := range []struct {
		v    Value
		mold string
		form string
	}{
		{Blank{}, "_", "_"},
		{Integer(-3), "-3", "-3"},
		{Char('x'), `#"x"`, "x"},
		{Char('\n'), `#"^/"`, "\n"},
		{NewString("say \"hi\"\n"), `"say ^"hi^"^/"`, "say \"hi\"\n"},
		{NewTypedString(KindFile, "a.txt"), "%a.txt", "a.txt"},
		{NewTypedString(KindTag, "b"), "<b>", "<b>"},
		{NewTypedString(KindEmail, "me@here"), "me@here", "me@here"},
		{NewBinary([]byte{0xDE, 0xAD}), "#{DEAD}", "#{DEAD}"},
		{NewBlock(Integer(1), NewString("x"), NewBlock()), `[1 "x" []]`, "1 x "},
		{NewArray(KindGroup, NewWord(KindWord, "f")), "(f)", "(f)"},
		{path, "a/2", "a/2"},
		{path.As(KindSetPath), "a/2:", "a/2:"},
		{path.As(KindGetPath), ":a/2", ":a/2"},
		{path.As(KindLitPath), "'a/2", "'a/2"},
		{NewWord(KindSetWord, "x"), "x:", "x:"},
		{NewWord(KindGetWord, "x"), ":x", ":x"},
		{NewWord(KindLitWord, "x"), "'x", "'x"},
		{NewWord(KindRefinement, "only"), "/only", "/only"},
		{Bar{}, "|", "|"},
		{Datatype{KindInteger}, "integer!", "integer!"},
		{AnyString, "any-string!", "any-string!"},
		{Logic(true), "true", "true"},
	} {
		assert.Equal(t, tc.mold, Mold(tc.v), "mold %#v", tc.v)
		assert.Equal(t, tc.form, Form(tc.v), "form %#v", tc.v)
	}

	bs := NewBitset()
	bs.Set(0)
	bs.Set(9)
	assert.Equal(t, "make bitset! #{8040}", Mold(bs))
	assert.Equal(t, "make bitset! [not bits #{8040}]", Mold(bs.Complement()))
}

func TestThrown(t *testing.T) {
	err := error(&Thrown{Value: Integer(3)})
	assert.EqualError(t, err, "no catch for throw: 3")
	err = &Thrown{Value: Integer(3), Name: NewWord(KindWord, "done")}
	assert.EqualError(t, err, "no catch for throw: 3 /name done")
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(Blank{}))
	assert.False(t, Truthy(Logic(false)))
	assert.True(t, Truthy(Logic(true)))
	assert.True(t, Truthy(Integer(0)))
	assert.True(t, Truthy(NewString("")))
}
