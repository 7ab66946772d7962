// Command r3parse runs a PARSE rule program against an input, or a file of
// such cases, printing the result.
//
//	r3parse [flags] RULES [INPUT]
//
// RULES and INPUT are source text, or @path to read a file; INPUT defaults to
// standard input. The exit code is 0 when the rules matched (or returned a
// value), 1 when they did not or a check failed, and 2 on error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/zsx/r3-sub004/internal/logio"
	"github.com/zsx/r3-sub004/value"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type outcome struct {
	Result string `json:"result,omitempty"`
	Input  string `json:"input,omitempty"`
	Diff   string `json:"diff,omitempty"`
	Error  string `json:"error,omitempty"`
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("r3parse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "read settings from a config file")
	fs.Bool("case", false, "match case-sensitively")
	fs.String("mode", "string", "how to read INPUT: string, binary, block or load")
	fs.Bool("trace", false, "enable trace logging")
	fs.Duration("timeout", 0, "specify a time limit")
	fs.Int("series-limit", 0, "limit how long insert and change may grow the input")
	fs.Bool("json", false, "write the outcome as JSON")
	fs.Bool("diff", false, "show how the rules changed the input")
	fs.String("check", "", "run the cases of a YAML file")
	fs.Int("jobs", 0, "how many check cases to run at once (default GOMAXPROCS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(fs, *configFile)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 2
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 2
	}
	defer logger.Sync()
	r := newRunner(cfg, logger.Sugar())

	if cfg.Timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if cfg.Check != "" {
		cases, err := readChecks(cfg.Check)
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return 2
		}
		var checks logio.Logger
		checks.SetOutput(stdout)
		checks.ErrorIf(r.check(ctx, cases, &checks))
		checks.Printf("DONE", "%v passed, %v failed", checks.Count("PASS"), checks.Count("FAIL"))
		return checks.ExitCode()
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintf(stderr, "usage: r3parse [flags] RULES [INPUT]\n")
		fs.PrintDefaults()
		return 2
	}
	pc := parseCase{Name: "command line"}
	if pc.Rules, err = readArg(fs.Arg(0)); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 2
	}
	if fs.NArg() > 1 {
		pc.Input, err = readArg(fs.Arg(1))
	} else {
		var b []byte
		b, err = io.ReadAll(stdin)
		pc.Input = string(b)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 2
	}

	res, err := r.run(ctx, pc, stdout)
	return report(cfg, stdout, stderr, res, err)
}

func report(cfg config, stdout, stderr io.Writer, res parseRun, err error) int {
	var oc outcome
	code := 0
	if err != nil {
		oc.Error = err.Error()
		code = 2
	} else {
		oc.Result = value.Mold(res.Result)
		if res.Result == value.Logic(false) {
			code = 1
		}
		if after := value.Mold(res.Input); cfg.Diff && after != res.Before {
			oc.Diff = diffText(res.Before, after)
		}
		if cfg.JSON {
			oc.Input = value.Mold(res.Input)
		}
	}

	if cfg.JSON {
		if err := json.NewEncoder(stdout).Encode(oc); err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return 2
		}
		return code
	}
	if oc.Error != "" {
		fmt.Fprintf(stderr, "ERROR: %+v\n", err)
		return code
	}
	fmt.Fprintln(stdout, oc.Result)
	if oc.Diff != "" {
		fmt.Fprintf(stdout, "diff: %v\n", oc.Diff)
	}
	return code
}

func readArg(arg string) (string, error) {
	if len(arg) > 1 && arg[0] == '@' {
		b, err := os.ReadFile(arg[1:])
		return string(b), err
	}
	return arg, nil
}
