package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bluele/gcache"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/zsx/r3-sub004/eval"
	"github.com/zsx/r3-sub004/internal/logio"
	"github.com/zsx/r3-sub004/load"
	"github.com/zsx/r3-sub004/parse"
	"github.com/zsx/r3-sub004/value"
)

var errMode = errors.New("unknown input mode")

// parseCase is one parse to run, as given on the command line or by an entry
// of a check file.
type parseCase struct {
	Name  string `yaml:"name"`
	Setup string `yaml:"setup"`
	Input string `yaml:"input"`
	Mode  string `yaml:"mode"`
	Rules string `yaml:"rules"`
	Case  bool   `yaml:"case"`

	Want       string  `yaml:"want"`
	WantInput  string  `yaml:"want-input"`
	WantError  string  `yaml:"want-error"`
	WantOutput *string `yaml:"want-output"`
}

type parseRun struct {
	Result value.Value
	Input  value.Value
	Before string
}

// runner runs parse cases; its rule cache is shared by concurrent cases,
// since a parse holds its rules against modification.
type runner struct {
	cfg   config
	log   *zap.SugaredLogger
	rules gcache.Cache
}

func newRunner(cfg config, log *zap.SugaredLogger) *runner {
	size := cfg.CacheSize
	if size < 1 {
		size = 1
	}
	rules := gcache.New(size).LRU().
		LoaderFunc(func(key interface{}) (interface{}, error) {
			blk, err := load.String("rules", key.(string))
			if err != nil {
				return nil, err
			}
			return blk, nil
		}).
		Build()
	return &runner{cfg: cfg, log: log, rules: rules}
}

func (r *runner) ruleBlock(src string) (value.Block, error) {
	v, err := r.rules.Get(src)
	if err != nil {
		return value.Block{}, err
	}
	return v.(value.Block), nil
}

// run evaluates the case's setup and input in a fresh interpreter, then
// parses; anything the rules print goes to out.
func (r *runner) run(ctx context.Context, pc parseCase, out io.Writer) (res parseRun, err error) {
	var opts []parse.Option
	outs := []io.Writer{out}
	if r.cfg.SeriesLimit > 0 {
		opts = append(opts, parse.WithSeriesLimit(r.cfg.SeriesLimit))
	}
	if r.cfg.Trace {
		logf := r.log.With("case", pc.Name).Debugf
		opts = append(opts, parse.WithLogf(logf))
		outs = append(outs, &logio.Writer{Logf: logf, Prefix: "output: "})
	}
	in := eval.New(eval.WithOutput(outs...), eval.WithParseOptions(opts...))

	if pc.Setup != "" {
		if _, err := in.Run(ctx, pc.Setup); err != nil {
			return res, fmt.Errorf("setup failed: %w", err)
		}
	}
	mode := pc.Mode
	if mode == "" {
		mode = r.cfg.Mode
	}
	res.Input, err = readInput(ctx, in, mode, pc.Input)
	if err != nil {
		return res, fmt.Errorf("invalid input: %w", err)
	}
	rules, err := r.ruleBlock(pc.Rules)
	if err != nil {
		return res, fmt.Errorf("invalid rules: %w", err)
	}

	res.Before = value.Mold(res.Input)
	r.log.Debugw("parse", "case", pc.Name, "input", res.Before, "rules", pc.Rules)
	res.Result, err = in.Parse(ctx, res.Input, rules, pc.Case || r.cfg.Case)
	if err != nil {
		return res, err
	}
	r.log.Debugw("parsed", "case", pc.Name, "result", value.Mold(res.Result))
	return res, nil
}

func readInput(ctx context.Context, in *eval.Interp, mode, src string) (value.Value, error) {
	switch mode {
	case "string":
		return value.NewString(src), nil
	case "binary":
		return value.NewBinary([]byte(src)), nil
	case "block":
		blk, err := load.String("input", src)
		if err != nil {
			return nil, err
		}
		return blk, nil
	case "load":
		return in.Run(ctx, src)
	}
	return nil, fmt.Errorf("%w %q", errMode, mode)
}

// diffText shows how after differs from before, marking deletions [-so-]
// and insertions {+so+}.
func diffText(before, after string) string {
	dmp := diffmatchpatch.New()
	var sb strings.Builder
	for _, d := range dmp.DiffMain(before, after, false) {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-")
			sb.WriteString(d.Text)
			sb.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+")
			sb.WriteString(d.Text)
			sb.WriteString("+}")
		default:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}
