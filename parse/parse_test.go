package parse_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/lithammer/dedent"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsx/r3-sub004/eval"
	"github.com/zsx/r3-sub004/internal/logio"
	"github.com/zsx/r3-sub004/load"
	"github.com/zsx/r3-sub004/parse"
	"github.com/zsx/r3-sub004/value"
)

func Test_scenarios(t *testing.T) {
	parseTestCases{
		parseTest("some then some").withInput(`"aabb"`).withRules(`some "a" some "b"`).expectTrue(),
		parseTest("incomplete").withInput(`"aabb"`).withRules(`some "a"`).expectFalse(),
		parseTest("copy thru").withInput(`"abc"`).withRules(`copy part thru "b" to end`).
			expectTrue().expectVar("part", `"ab"`),
		parseTest("some integer!").withInput(`[1 2 3]`).withRules(`some integer!`).expectTrue(),
		parseTest("some alternatives").withInput(`[1 "x" 2]`).withRules(`some [integer! | string!]`).expectTrue(),
		parseTest("counting groups").withInput(`"xyz"`).
			withRules(`(counter: 0) some [skip (counter: counter + 1)]`).
			expectTrue().expectVar("counter", "3"),
		parseTest("change in place").withSetup(`s: "abc"`).withInput(`s`).
			withRules(`skip change "b" "B" skip`).
			expectTrue().expectVar("s", `"aBc"`),
		parseTest("change is rooted").withSetup(`s: "abc"`).withInput(`s`).
			withRules(`change "b" "B"`).
			expectFalse().expectVar("s", `"abc"`),
		parseTest("return").withInput(`"aaa"`).withRules(`return [some "a"]`).expectResult(`"aaa"`),
		parseTest("into").withInput(`[[1 2] [3]]`).withRules(`into [some integer!] into [integer!]`).expectTrue(),
		parseTest("copy without word").withInput(`"a"`).withRules(`copy 3`).expectError(parse.ErrParseVariable),
	}.run(t)
}

func Test_properties(t *testing.T) {
	parseTestCases{
		// some makes progress
		parseTest("some empty").withInput(`""`).withRules(`some "a"`).expectFalse(),
		parseTest("some one").withInput(`"a"`).withRules(`some "a"`).expectTrue(),
		parseTest("some two").withInput(`"aa"`).withRules(`some "a"`).expectTrue(),

		// while tolerates stasis, and loops until halted when no rule advances
		parseTest("while empty").withInput(`""`).withRules(`while "a"`).expectTrue(),
		parseTest("while stuck").withInput(`""`).withRules(`while [opt "a"]`).
			withTimeout(50*time.Millisecond).expectError(context.DeadlineExceeded),
		parseTest("any stuck").withInput(`""`).withRules(`any [opt "a"]`).expectTrue(),

		// not and ahead do not consume
		parseTest("not").withInput(`"a"`).withRules(`not "b" "a"`).expectTrue(),
		parseTest("not fails").withInput(`"a"`).withRules(`not "a" "a"`).expectFalse(),
		parseTest("not not").withInput(`"ab"`).withRules(`not not "a" "ab"`).expectTrue(),
		parseTest("ahead").withInput(`"ab"`).withRules(`ahead "a" "ab"`).expectTrue(),
		parseTest("and").withInput(`"ab"`).withRules(`and "ab" "ab"`).expectTrue(),
		parseTest("ahead fails").withInput(`"ab"`).withRules(`ahead "b" "ab"`).expectFalse(),

		// alternation commits to the first success
		parseTest("commit").withSetup(`x: 0`).withInput(`"a"`).
			withRules(`"a" (x: x + 1) | "a" (x: x + 10)`).
			expectTrue().expectVar("x", "1"),
		parseTest("restore").withInput(`"ab"`).withRules(`"a" "x" | "ab"`).expectTrue(),
		parseTest("no alternative").withInput(`"ab"`).withRules(`"a" "x" | "b"`).expectFalse(),

		// captures
		parseTest("copy span").withInput(`"hello world"`).withRules(`copy w to " " skip to end`).
			expectTrue().expectVar("w", `"hello"`),
		parseTest("copy array").withInput(`[1 2 3]`).withRules(`copy b 2 integer! integer!`).
			expectTrue().expectVar("b", `[1 2]`),
		parseTest("copy empty").withInput(`"a"`).withRules(`copy e opt "b" "a"`).
			expectTrue().expectVar("e", `""`),
		parseTest("set char").withInput(`"abc"`).withRules(`set c skip to end`).
			expectTrue().expectVar("c", `#"a"`),
		parseTest("set byte").withInput(`#{0102}`).withRules(`set b skip skip`).
			expectTrue().expectVar("b", `1`),
		parseTest("set value").withInput(`[1 2]`).withRules(`set n integer! integer!`).
			expectTrue().expectVar("n", `1`),
		parseTest("set nothing").withInput(`"a"`).withRules(`set n opt "b" "a"`).
			expectTrue().expectVar("n", `_`),
		parseTest("set-word position").withInput(`"ab"`).withRules(`skip p: skip`).
			expectTrue().expectVar("p", `"b"`),

		// into totality
		parseTest("into partial").withInput(`[[1 2]]`).withRules(`into [integer!]`).expectFalse(),
		parseTest("into string").withInput(`["ab"]`).withRules(`into ["a" "b"]`).expectTrue(),
		parseTest("into not series").withInput(`[1]`).withRules(`into [skip]`).expectFalse(),
		parseTest("into string input").withInput(`"ab"`).withRules(`into [skip]`).expectFalse(),

		// seeking
		parseTest("seek clamps").withSetup(`s: "abcd"`).withInput(`s`).
			withRules(`4 skip p: (h: head p) :h remove 2 skip :p end`).
			expectTrue().expectVar("s", `"cd"`),
		parseTest("seek back").withInput(`"ab"`).withRules(`p: skip :p 2 skip`).expectTrue(),
		parseTest("seek non series").withSetup(`n: 1`).withInput(`"a"`).withRules(`:n`).
			expectError(parse.ErrParseSeries),
		parseTest("seek other kind").withSetup(`b: [1]`).withInput(`"a"`).withRules(`:b`).
			expectError(parse.ErrParseSeries),
		parseTest("seek path").withSetup(`ob: [at _]`).withInput(`"ab"`).
			withRules(`skip ob/at: skip :ob/at skip`).expectTrue(),
		parseTest("set-path").withSetup(`ob: [pos _]`).withInput(`"ab"`).
			withRules(`skip ob/pos: skip`).expectTrue().expectVar("ob", `[pos "b"]`),
	}.run(t)
}

func Test_rules(t *testing.T) {
	digits := withParseSetup(`digit: charset "0123456789"`)
	onBinary := withParseInput(`#{0102FF}`)
	parseTestCases{
		// iteration
		parseTest("count").withInput(`"aaa"`).withRules(`3 "a"`).expectTrue(),
		parseTest("count short").withInput(`"aaa"`).withRules(`2 "a"`).expectFalse(),
		parseTest("count range").withInput(`"aaa"`).withRules(`1 3 "a"`).expectTrue(),
		parseTest("count range unmet").withInput(`"a"`).withRules(`2 3 "a"`).expectFalse(),
		parseTest("count range reversed").withInput(`"a"`).withRules(`3 1 "a"`).expectError(parse.ErrParseRule),
		parseTest("count word").withSetup(`n: 2`).withInput(`"aa"`).withRules(`n "a"`).expectTrue(),
		parseTest("count zero").withInput(`"a"`).withRules(`0 "b" "a"`).expectTrue(),
		parseTest("count skip").withInput(`"abc"`).withRules(`3 skip`).expectTrue(),
		parseTest("count negative").withInput(`"a"`).withRules(`-1 "a"`).expectError(parse.ErrParseRule),
		parseTest("opt").withInput(`""`).withRules(`opt "a"`).expectTrue(),
		parseTest("any").withInput(`"aaab"`).withRules(`any "a" "b"`).expectTrue(),
		parseTest("skip end").withInput(`"ab"`).withRules(`skip skip end`).expectTrue(),
		parseTest("skip past end").withInput(`"a"`).withRules(`skip skip`).expectFalse(),

		// scanning
		parseTest("to").withInput(`"abc"`).withRules(`to "c" skip`).expectTrue(),
		parseTest("thru").withInput(`"abc"`).withRules(`thru "c"`).expectTrue(),
		parseTest("thru missing").withInput(`"abc"`).withRules(`thru "x"`).expectFalse(),
		parseTest("to char").withInput(`"abc"`).withRules(`to #"b" 2 skip`).expectTrue(),
		parseTest("to end").withInput(`"abc"`).withRules(`to end`).expectTrue(),
		parseTest("to position").withInput(`"abcd"`).withRules(`to 3 "cd"`).expectTrue(),
		parseTest("thru position").withInput(`"abcd"`).withRules(`thru 2 "cd"`).expectTrue(),
		parseTest("complement ignores case").withInput(`"A"`).
			withRules(`(nota: complement charset "a") nota`).expectFalse(),
		parseTest("complement with case").withInput(`"A"`).withCase().
			withRules(`(nota: complement charset "a") nota`).expectTrue(),
		parseTest("to position behind").withInput(`"abc"`).withRules(`3 skip to 1 3 skip`).expectFalse(),
		parseTest("copy to position behind").withInput(`"abc"`).withRules(`2 skip [copy x to 1 | copy x to end]`).
			expectTrue().expectVar("x", `"c"`),
		parseTest("to shrinking sub-rule").withSetup(`s: "abc"`).withInput(`s`).
			withRules(`to [[remove skip fail] | "z"]`).
			expectFalse().expectVar("s", `"b"`),
		parseTest("to bitset").apply(digits).withInput(`"ab12"`).
			withRules(`to digit 2 digit`).expectTrue(),
		parseTest("to alternatives").withInput(`"abc"`).withRules(`to ["c" | "b"] "bc"`).expectTrue(),
		parseTest("thru alternatives").withInput(`"abc"`).withRules(`thru [#"b" | end] "c"`).expectTrue(),
		parseTest("thru alternative end").withInput(`"abc"`).withRules(`thru ["x" | end]`).expectTrue(),
		parseTest("to sub-rule").withInput(`"aXbYc"`).withRules(`to [["b" "Y"]] "bYc"`).expectTrue(),
		parseTest("to quote").withInput(`[1 a 2]`).withRules(`to [quote a] 'a skip`).expectTrue(),
		parseTest("to array").withInput(`[1 "x" 2]`).withRules(`thru string! integer!`).expectTrue(),
		parseTest("to keyword").withInput(`"a"`).withRules(`to some`).expectError(parse.ErrParseRule),
		parseTest("to group").withInput(`"a"`).withRules(`to ("a")`).expectError(parse.ErrParseRule),
		parseTest("to block group").withInput(`"a"`).withRules(`to [("a")]`).expectError(parse.ErrParseRule),

		// array matching
		parseTest("quote").withInput(`[a 1]`).withRules(`quote a quote 1`).expectTrue(),
		parseTest("quote group").withInput(`[3]`).withRules(`quote (1 + 2)`).expectTrue(),
		parseTest("quote string").withInput(`"a"`).withRules(`quote "a"`).expectError(parse.ErrParseRule),
		parseTest("lit-word").withInput(`[a b]`).withRules(`'a 'b`).expectTrue(),
		parseTest("lit-word mismatch").withInput(`[a: b]`).withRules(`'a 'b`).expectFalse(),
		parseTest("lit-path").withInput(`[a/b]`).withRules(`'a/b`).expectTrue(),
		parseTest("datatypes").withInput(`[1 "x" #"c" <t>]`).withRules(`integer! any-string! char! tag!`).expectTrue(),
		parseTest("literal values").withInput(`[1 "x" #"c"]`).withRules(`quote 1 "X" #"c"`).expectTrue(),
		parseTest("literal case").withInput(`[1 "x"]`).withRules(`quote 1 "X"`).withCase().expectFalse(),
		parseTest("blank").withInput(`[1]`).withRules(`_ skip _`).expectTrue(),

		// do
		parseTest("do").withInput(`[1 + 2]`).withRules(`do [quote 3]`).expectTrue(),
		parseTest("do datatype").withInput(`[1 + 2 "x"]`).withRules(`do integer! string!`).expectTrue(),
		parseTest("do mismatch").withInput(`[1 + 2]`).withRules(`do string!`).expectFalse(),
		parseTest("do string input").withInput(`"a"`).withRules(`do skip`).expectError(parse.ErrParseRule),

		// strings and binaries
		parseTest("case folds").withInput(`"ABC"`).withRules(`"abc"`).expectTrue(),
		parseTest("case sensitive").withInput(`"ABC"`).withRules(`"abc"`).withCase().expectFalse(),
		parseTest("char folds").withInput(`"A"`).withRules(`#"a"`).expectTrue(),
		parseTest("bitset").apply(digits).withInput(`"123"`).
			withRules(`some digit`).expectTrue(),
		parseTest("bitset folds").withSetup(`lower: charset "abc"`).withInput(`"ABC"`).
			withRules(`some lower`).expectTrue(),
		parseTest("bitset case").withSetup(`lower: charset "abc"`).withInput(`"ABC"`).
			withRules(`some lower`).withCase().expectFalse(),
		parseTest("bitset complement").withSetup(`nota: complement charset "a"`).withInput(`"bcd"`).
			withRules(`some nota`).expectTrue(),
		parseTest("empty string").withInput(`"a"`).withRules(`"" "a" ""`).expectTrue(),
		parseTest("tag").withInput(`"<a>b"`).withRules(`<a> "b"`).expectTrue(),
		parseTest("binary rule on string").withInput(`"ab"`).withRules(`#{6162}`).expectTrue(),
		parseTest("binary").apply(onBinary).withRules(`#{0102} #"^(FF)"`).expectTrue(),
		parseTest("binary string").withInput(`#{616263}`).withRules(`"ab" skip`).expectTrue(),
		parseTest("binary is case sensitive").withInput(`#{41}`).withRules(`"a"`).expectFalse(),
		parseTest("binary wide char").withInput(`#{41}`).withRules(`#"^(0100)"`).expectError(parse.ErrParseRule),
		parseTest("binary to byte").apply(onBinary).withRules(`to [255] skip`).expectTrue(),
		parseTest("string to code point").withInput(`"abc"`).withRules(`thru [99]`).expectTrue(),
		parseTest("string datatype").withInput(`"a"`).withRules(`string!`).expectError(parse.ErrParseRule),

		// mutation
		parseTest("remove").withSetup(`s: "a-b"`).withInput(`s`).withRules(`skip remove "-" skip`).
			expectTrue().expectVar("s", `"ab"`),
		parseTest("insert").withSetup(`s: "ac"`).withInput(`s`).withRules(`skip insert "b" skip`).
			expectTrue().expectVar("s", `"abc"`),
		parseTest("insert block").withSetup(`b: [1 3]`).withInput(`b`).withRules(`skip insert [2] skip`).
			expectTrue().expectVar("b", `[1 2 3]`),
		parseTest("insert only").withSetup(`b: [1 3]`).withInput(`b`).withRules(`skip insert only [2] skip`).
			expectTrue().expectVar("b", `[1 [2] 3]`),
		parseTest("insert word").withSetup(`x: "b" s: "ac"`).withInput(`s`).withRules(`skip insert x skip`).
			expectTrue().expectVar("s", `"abc"`),
		parseTest("change lit-word").withSetup(`b: [a c]`).withInput(`b`).withRules(`skip change 'c 'b`).
			expectTrue().expectVar("b", `[a b]`),
		parseTest("change group").withSetup(`s: "abc"`).withInput(`s`).withRules(`skip change "b" ("XY") skip`).
			expectTrue().expectVar("s", `"aXYc"`),
		parseTest("change binary").withSetup(`b: #{010203}`).withInput(`b`).withRules(`skip change skip #{FFFF} skip`).
			expectTrue().expectVar("b", `#{01FFFF03}`),
		parseTest("insert keyword").withInput(`"a"`).withRules(`insert skip`).expectError(parse.ErrParseRule),
		parseTest("insert nothing").withInput(`"a"`).withRules(`insert`).expectError(parse.ErrParseEnd),
		parseTest("insert limit").withInput(`"a"`).withRules(`insert "bcd"`).apply(
			withParseOptions(parse.WithSeriesLimit(3)),
			expectParseError(parse.ErrMemoryLimit),
		),

		// control
		parseTest("accept").withInput(`"ab"`).withRules(`some ["a" accept "x"] "b"`).expectTrue(),
		parseTest("break").withInput(`"ab"`).withRules(`some ["a" break "x"] "b"`).expectTrue(),
		parseTest("accept top").withInput(`"ab"`).withRules(`"a" accept "x"`).expectFalse(),
		parseTest("reject").withInput(`"ab"`).withRules(`some ["a" reject] | "ab"`).expectTrue(),
		parseTest("reject any").withInput(`"ab"`).withRules(`any ["a" reject] "ab"`).expectFalse(),
		parseTest("fail").withInput(`"a"`).withRules(`"a" fail | "a"`).expectTrue(),
		parseTest("fail alone").withInput(`"a"`).withRules(`"a" fail`).expectFalse(),
		parseTest("if true").withSetup(`flag: true`).withInput(`"a"`).withRules(`if (flag) "a"`).expectTrue(),
		parseTest("if false").withSetup(`flag: false`).withInput(`"a"`).withRules(`if (flag) "a"`).expectFalse(),
		parseTest("not if").withInput(`"a"`).withRules(`not if (false) "a"`).expectTrue(),
		parseTest("if word").withInput(`"a"`).withRules(`if flag`).expectError(parse.ErrParseRule),
		parseTest("then skips").withInput(`"y"`).withRules(`then "a" "x" | "y" | "b"`).expectFalse(),
		parseTest("then reaches").withInput(`"b"`).withRules(`then "a" "x" | "y" | "b"`).expectTrue(),
		parseTest("without then").withInput(`"y"`).withRules(`"a" "x" | "y" | "b"`).expectTrue(),
		parseTest("return group").withInput(`"a"`).withRules(`return ("x")`).expectResult(`"x"`),
		parseTest("return deep").withInput(`[1 [2 3]]`).withRules(`skip into [skip return skip]`).expectResult(`[3]`),
		parseTest("limit").withInput(`"a"`).withRules(`limit`).expectError(parse.ErrNotDone),
		parseTest("diagnostic").withInput(`"ab"`).withRules(`skip ?? skip`).
			expectTrue().expectOutput("rule: skip\ninput: \"b\"\n"),
		parseTest("print").withInput(`"ab"`).withRules(`skip (print "hi") skip`).
			expectTrue().expectOutput("hi\n"),
		parseTest("nested parse").withInput(`"a"`).withRules(`(ok: parse "x" ["x"]) skip`).
			expectTrue().expectVar("ok", "true"),

		// throws
		parseTest("group throw").withInput(`"a"`).withRules(`(throw 1)`).expectThrown("1"),
		parseTest("path throw").withSetup(`b: [1]`).withInput(`"a"`).withRules(`b/(throw 1)`).
			expectError(parse.ErrNoCatchForThrow),

		// errors
		parseTest("unset word").withInput(`"a"`).withRules(`nope`).expectError(parse.ErrNoValue),
		parseTest("keyword set-word").withInput(`"a"`).withRules(`some: skip`).expectError(parse.ErrParseCommand),
		parseTest("keyword get-word").withInput(`"a"`).withRules(`:end`).expectError(parse.ErrParseCommand),
		parseTest("keyword target").withInput(`"a"`).withRules(`copy some skip`).expectError(parse.ErrParseCommand),
		parseTest("copy at end").withInput(`"a"`).withRules(`copy`).expectError(parse.ErrParseEnd),
		parseTest("pending bar").withInput(`"a"`).withRules(`some | "a"`).expectError(parse.ErrParseRule),
		parseTest("pending end").withInput(`"a"`).withRules(`some`).expectError(parse.ErrParseEnd),
		parseTest("pending target").withInput(`"a"`).withRules(`copy x`).expectError(parse.ErrParseEnd),
		parseTest("bad string rule").withInput(`"a"`).withRules(`1 2 3`).expectError(parse.ErrParseRule),
		parseTest("locked rules").withSetup(`r: [(append r 1) skip]`).withInput(`"a"`).withRules(`r`).
			expectError(value.ErrLocked),
		parseTest("locked rule string").withInput(`"a"`).withRules(`(t: "ab") (append t "c") "a"`).
			expectError(value.ErrLocked),
		parseTest("locked input").withSetup(`b: [1]`).withInput(`b`).withRules(`remove skip (append b 2) skip`).
			expectTrue().expectVar("b", `[2]`),
	}.run(t)
}

func Test_grammars(t *testing.T) {
	parseTestCases{
		parseTest("number list").
			withSetup(`digit: charset "0123456789" nums: []`).
			withInput(`"1,22,333"`).
			withRules(dedent.Dedent(`
				some [
					copy n some digit (append nums n)
					[#"," | end]
				]
			`)).
			expectTrue().expectVar("nums", `["1" "22" "333"]`),

		parseTest("pairs").
			withSetup(`pairs: []`).
			withInput(`"a=1;b=2"`).
			withRules(dedent.Dedent(`
				some [
					copy k to "=" skip
					copy v to [";" | end]
					(append pairs reduce [k v])
					opt ";"
				]
			`)).
			expectTrue().expectVar("pairs", `["a" "1" "b" "2"]`),

		parseTest("dialect").
			withSetup(`out: []`).
			withInput(`[move 10 turn left move 2]`).
			withRules(dedent.Dedent(`
				some [
					'move set n integer! (append out n)
					| 'turn set dir ['left | 'right] (append out dir)
				]
			`)).
			expectTrue().expectVar("out", `[10 left 2]`),
	}.run(t)
}

func TestParse_entry(t *testing.T) {
	ctx := context.Background()
	rules := load.MustString(`"a"`)

	_, err := parse.Parse(ctx, value.NewString("a"), value.NewString("a"))
	assert.ErrorIs(t, err, parse.ErrUseSplitSimple)
	_, err = parse.Parse(ctx, value.NewString("a"), value.Blank{})
	assert.ErrorIs(t, err, parse.ErrUseSplitSimple)
	_, err = parse.Parse(ctx, value.NewString("a"), value.Integer(1))
	assert.ErrorIs(t, err, parse.ErrParseRule)
	_, err = parse.Parse(ctx, value.Integer(1), rules)
	assert.ErrorIs(t, err, parse.ErrParseSeries)

	res, err := parse.Parse(ctx, value.NewString("a"), rules)
	require.NoError(t, err)
	assert.Equal(t, value.Logic(true), res)

	// the input position is where matching starts
	res, err = parse.Parse(ctx, value.NewString("ba").At(1), rules)
	require.NoError(t, err)
	assert.Equal(t, value.Logic(true), res)

	// literal rules need no host
	res, err = parse.Parse(ctx, load.MustString(`1 x`), load.MustString(`some [integer! | word!]`))
	require.NoError(t, err)
	assert.Equal(t, value.Logic(true), res)
	_, err = parse.Parse(ctx, value.NewString("a"), load.MustString(`(1)`))
	assert.ErrorIs(t, err, parse.ErrNoHost)
}

func TestParser_Subparse(t *testing.T) {
	ctx := context.Background()
	p := parse.New()
	for _, tc := range []struct {
		input string
		rules string
		want  string
	}{
		{`"aab"`, `some "a"`, `2`},
		{`"aab"`, `some "b"`, `_`},
		{`"ab"`, `"a" accept "x"`, `1`},
		{`"ab"`, `"a" reject`, `_`},
		{`"ab"`, `to end`, `2`},
	} {
		t.Run(tc.rules, func(t *testing.T) {
			res, err := p.Subparse(ctx, load.MustString(tc.input).Values()[0], load.MustString(tc.rules))
			require.NoError(t, err)
			assert.Equal(t, tc.want, value.Mold(res))
		})
	}
}

func TestParse_deterministic(t *testing.T) {
	in := eval.New()
	rules := load.MustString(`some [copy x [some digit] (append out x) | skip]`)
	_, err := in.Run(context.Background(), `digit: charset "0123456789"`)
	require.NoError(t, err)

	var outs []string
	for i := 0; i < 2; i++ {
		_, err := in.Run(context.Background(), `out: []`)
		require.NoError(t, err)
		res, err := in.Parse(context.Background(), value.NewString("a12b3"), rules, false)
		require.NoError(t, err)
		assert.Equal(t, value.Logic(true), res)
		out, _ := in.Get(value.NewWord(value.KindWord, "out"))
		outs = append(outs, value.Mold(out))
	}
	assert.Equal(t, []string{`["12" "3"]`, `["12" "3"]`}, outs)
	assert.Equal(t, `[some [copy x [some digit] (append out x) | skip]]`, value.Mold(rules))
}

func TestParse_catch(t *testing.T) {
	res, err := eval.New().Run(context.Background(), `catch [parse "a" [(throw 5)]]`)
	require.NoError(t, err)
	assert.Equal(t, value.Integer(5), res)
}

// frameHost evaluates groups by recording the parser's frames.
type frameHost struct {
	p      *parse.Parser
	frames []parse.FrameInfo
}

func (h *frameHost) Get(value.Word) (value.Value, bool) { return nil, false }
func (h *frameHost) Set(value.Word, value.Value) error  { return nil }

func (h *frameHost) SetPath(context.Context, value.Block, value.Value) error { return nil }

func (h *frameHost) GetPath(context.Context, value.Block) (value.Value, error) {
	return nil, errors.New("no paths")
}

func (h *frameHost) Do(context.Context, value.Block) (value.Value, error) {
	h.frames = h.p.Frames()
	return value.Blank{}, nil
}

func (h *frameHost) DoNext(context.Context, value.Block) (value.Value, int, error) {
	return nil, 0, errors.New("no do")
}

func TestParser_Frames(t *testing.T) {
	var h frameHost
	h.p = parse.New(parse.WithHost(&h))
	res, err := h.p.Parse(context.Background(), value.NewString("ab"), load.MustString(`skip [(x)] skip`))
	require.NoError(t, err)
	assert.Equal(t, value.Logic(true), res)

	require.Len(t, h.frames, 2)
	assert.Equal(t, 0, h.frames[0].Depth)
	assert.Equal(t, 1, h.frames[1].Depth)
	assert.Equal(t, 1, h.frames[1].Start)
	assert.Equal(t, 1, h.frames[0].Input.Pos())

	var out strings.Builder
	parse.DumpFrames(&out, h.frames)
	if want, got := lines(
		`# Parse Frames`,
		`  #0 rules: [skip [(x)] >>> skip]`,
		`     input: "b" @1 from 0`,
		`  #1 rules: [(x) >>>]`,
		`     input: "b" @1 from 1`,
	), out.String(); got != want {
		t.Errorf("wrong frame dump:\n%s", diff(want, got))
	}

	assert.Empty(t, h.p.Frames(), "no frames after the parse")
}

func TestError(t *testing.T) {
	_, err := parse.Parse(context.Background(), value.NewString("a"), load.MustString(`skip [opt nope]`))
	var perr *parse.Error
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, parse.ErrNoValue)
	assert.Equal(t, "word has no value, near: nope", perr.Error())
	assert.Len(t, perr.Stack, 2)

	var out strings.Builder
	parse.DumpFrames(&out, perr.Stack)
	assert.Contains(t, out.String(), "[opt nope >>>]")
}

func TestParse_trace(t *testing.T) {
	var trace []string
	logf := func(mess string, args ...interface{}) {
		trace = append(trace, fmt.Sprintf(mess, args...))
	}
	res, err := parse.Parse(context.Background(), value.NewString("ab"), load.MustString(`"a" ["b"]`), parse.WithLogf(logf))
	require.NoError(t, err)
	assert.Equal(t, value.Logic(true), res)
	require.NotEmpty(t, trace)
	assert.True(t, strings.HasPrefix(trace[0], "> "), "starts with a frame mark: %q", trace[0])
	var nested bool
	for _, line := range trace {
		if strings.HasPrefix(line, `    ? "b"`) {
			nested = true
		}
	}
	assert.True(t, nested, "nested frame is indented:\n%v", strings.Join(trace, "\n"))
}

//// builder

type parseTestCases []parseTestCase

func (pts parseTestCases) run(t *testing.T) {
	{
		var exclusive []parseTestCase
		for _, pt := range pts {
			if pt.exclusive {
				exclusive = append(exclusive, pt)
			}
		}
		if len(exclusive) > 0 {
			pts = exclusive
		}
	}
	for _, pt := range pts {
		t.Run(pt.name, pt.run)
	}
}

func parseTest(name string) (pt parseTestCase) {
	pt.name = name
	return pt
}

type parseTestCase struct {
	name          string
	setup         string
	input         string
	rules         string
	caseSensitive bool
	opts          []parse.Option
	timeout       time.Duration

	want      string
	wantErr   error
	wantThrow string
	output    *string
	expect    []func(t *testing.T, in *eval.Interp)

	exclusive bool
}

func (pt parseTestCase) apply(wraps ...func(parseTestCase) parseTestCase) parseTestCase {
	for _, wrap := range wraps {
		pt = wrap(pt)
	}
	return pt
}

func (pt parseTestCase) exclusiveTest() parseTestCase {
	pt.exclusive = true
	return pt
}

func (pt parseTestCase) withSetup(src string) parseTestCase {
	pt.setup = src
	return pt
}

func (pt parseTestCase) withInput(src string) parseTestCase {
	pt.input = src
	return pt
}

func (pt parseTestCase) withRules(src string) parseTestCase {
	pt.rules = src
	return pt
}

func (pt parseTestCase) withCase() parseTestCase {
	pt.caseSensitive = true
	return pt
}

func (pt parseTestCase) withOptions(opts ...parse.Option) parseTestCase {
	pt.opts = append(pt.opts, opts...)
	return pt
}

func (pt parseTestCase) withTimeout(timeout time.Duration) parseTestCase {
	pt.timeout = timeout
	return pt
}

func (pt parseTestCase) expectResult(mold string) parseTestCase {
	pt.want = mold
	return pt
}

func (pt parseTestCase) expectTrue() parseTestCase  { return pt.expectResult("true") }
func (pt parseTestCase) expectFalse() parseTestCase { return pt.expectResult("false") }

func (pt parseTestCase) expectError(err error) parseTestCase {
	pt.wantErr = err
	return pt
}

func (pt parseTestCase) expectThrown(mold string) parseTestCase {
	pt.wantThrow = mold
	return pt
}

func (pt parseTestCase) expectVar(name string, mold string) parseTestCase {
	pt.expect = append(pt.expect, func(t *testing.T, in *eval.Interp) {
		v, ok := in.Get(value.NewWord(value.KindWord, name))
		if assert.True(t, ok, "expected %v to be set", name) {
			assert.Equal(t, mold, value.Mold(v), "expected %v value", name)
		}
	})
	return pt
}

func (pt parseTestCase) expectOutput(output string) parseTestCase {
	pt.output = &output
	return pt
}

func (pt parseTestCase) run(t *testing.T) {
	const defaultTimeout = time.Second
	timeout := pt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var trace bytes.Buffer
	defer func() {
		if t.Failed() {
			lw := logio.Writer{Logf: t.Logf, Prefix: "trace: "}
			defer lw.Close()
			trace.WriteTo(&lw)
		}
	}()
	logf := func(mess string, args ...interface{}) {
		fmt.Fprintf(&trace, mess+"\n", args...)
	}

	var out strings.Builder
	in := eval.New(
		eval.WithOutput(&out),
		eval.WithParseOptions(pt.opts...),
		eval.WithParseOptions(parse.WithLogf(logf)),
	)
	if pt.setup != "" {
		_, err := in.Run(ctx, pt.setup)
		require.NoError(t, err, "setup failed")
	}
	input, err := in.Run(ctx, pt.input)
	require.NoError(t, err, "input evaluation failed")
	rules, err := load.String(t.Name(), pt.rules)
	require.NoError(t, err, "invalid rules")
	before := value.Mold(rules)

	res, err := in.Parse(ctx, input, rules, pt.caseSensitive)
	assert.Equal(t, before, value.Mold(rules), "rules must not change")

	switch {
	case pt.wantErr != nil:
		assert.True(t, errors.Is(err, pt.wantErr), "expected error: %v\ngot: %+v", pt.wantErr, err)
	case pt.wantThrow != "":
		var thrown *value.Thrown
		if assert.True(t, errors.As(err, &thrown), "expected throw, got: %+v", err) {
			assert.Equal(t, pt.wantThrow, value.Mold(thrown.Value), "expected thrown value")
		}
	default:
		if assert.NoError(t, err, "unexpected parse error") {
			assert.Equal(t, pt.want, value.Mold(res), "expected parse result")
		}
	}

	if !t.Failed() {
		if got := out.String(); pt.output != nil && got != *pt.output {
			t.Errorf("wrong output:\n%s", diff(*pt.output, got))
		}
		for _, expect := range pt.expect {
			expect(t, in)
		}
	}
}

//// utilities

var reNL = regexp.MustCompile(`(?m)^`)

func diff(l, r string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(l, r, false)
	pretty := dmp.DiffPrettyText(diffs)
	return reNL.ReplaceAllLiteralString(pretty, "\t")
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}
