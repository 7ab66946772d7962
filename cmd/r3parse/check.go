package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/zsx/r3-sub004/internal/logio"
	"github.com/zsx/r3-sub004/value"
)

type checkFile struct {
	Cases []parseCase `yaml:"cases"`
}

func readChecks(path string) ([]parseCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf checkFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	for i := range cf.Cases {
		if cf.Cases[i].Name == "" {
			cf.Cases[i].Name = fmt.Sprintf("case %v", i+1)
		}
	}
	return cf.Cases, nil
}

// check runs every case with up to cfg.Jobs at a time, reporting each PASS
// or FAIL to report.
func (r *runner) check(ctx context.Context, cases []parseCase, report *logio.Logger) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.cfg.Jobs)
	for _, pc := range cases {
		pc := pc
		eg.Go(func() error {
			t0 := time.Now()
			if mess := r.checkCase(ctx, pc); mess != "" {
				report.Errorf("%v (%v): %v", pc.Name, time.Since(t0), mess)
			} else {
				report.Printf("PASS", "%v (%v)", pc.Name, time.Since(t0))
			}
			return nil
		})
	}
	return eg.Wait()
}

// checkCase returns what was unexpected about the case, or "" if nothing.
func (r *runner) checkCase(ctx context.Context, pc parseCase) string {
	var out strings.Builder
	res, err := r.run(ctx, pc, &out)
	if pc.WantError != "" {
		switch {
		case err == nil:
			return fmt.Sprintf("expected error %q, got %v", pc.WantError, value.Mold(res.Result))
		case !strings.Contains(err.Error(), pc.WantError):
			return fmt.Sprintf("expected error %q, got %v", pc.WantError, err)
		}
		return ""
	}
	if err != nil {
		return fmt.Sprintf("unexpected error: %v", err)
	}

	want := pc.Want
	if want == "" {
		want = "true"
	}
	var probs []string
	if got := value.Mold(res.Result); got != want {
		probs = append(probs, fmt.Sprintf("expected result %v, got %v", want, got))
	}
	if pc.WantInput != "" {
		if got := value.Mold(res.Input); got != pc.WantInput {
			probs = append(probs, fmt.Sprintf("expected input %v, got %v", pc.WantInput, diffText(pc.WantInput, got)))
		}
	}
	if pc.WantOutput != nil && out.String() != *pc.WantOutput {
		probs = append(probs, fmt.Sprintf("expected output %q, got %q", *pc.WantOutput, out.String()))
	}
	return strings.Join(probs, "; ")
}
