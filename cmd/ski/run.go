package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nickandperla.net/ski/internal/eval"
	"nickandperla.net/ski/pkg/ski"
)

// errFailed is returned when at least one expression did not reach normal
// form. The individual errors are already on stderr.
var errFailed = errors.New("some expressions failed")

func newRunCmd(g *globals) *cobra.Command {
	var (
		evalStr string
		persist bool
		stats   bool
	)

	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Normalize every expression of one or more programs",
		Long: `run prints the normal form of each top-level expression, one per line.
Files share one session, so later files may use earlier definitions.
With no file and no -e the program is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.newRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer g.flushMetrics()

			r := &runner{rt: rt, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), stats: stats}
			ctx := cmd.Context()

			for _, path := range args {
				if err := r.file(ctx, path); err != nil {
					return err
				}
			}
			if evalStr != "" {
				if err := r.source(ctx, strings.NewReader(evalStr), "<-e>"); err != nil {
					return err
				}
			}
			if len(args) == 0 && evalStr == "" {
				in := cmd.InOrStdin()
				if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
					return errors.New("no program: pass files, -e, or pipe a program on stdin")
				}
				if err := r.source(ctx, in, "<stdin>"); err != nil {
					return err
				}
			}

			if persist {
				n, err := rt.PersistAll()
				if err != nil {
					return err
				}
				g.log.Info("definitions persisted", "count", n)
			}
			if r.failed > 0 {
				return fmt.Errorf("%w: %d of %d", errFailed, r.failed, r.total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&evalStr, "eval", "e", "", "Evaluate a program given as a string")
	cmd.Flags().BoolVar(&persist, "persist", false, "Persist every definition to the library afterwards")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print passes and rule counts to stderr")

	return cmd
}

// runner evaluates programs in one runtime and prints their results.
type runner struct {
	rt     *ski.Runtime
	out    io.Writer
	errOut io.Writer
	stats  bool
	total  int
	failed int
}

func (r *runner) file(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.source(ctx, f, path)
}

// source evaluates one program. Syntax errors abort; reduction failures are
// reported and counted.
func (r *runner) source(ctx context.Context, in io.Reader, name string) error {
	results, err := r.rt.EvalReader(ctx, in, name)
	if err != nil {
		return err
	}
	r.print(name, results)
	return nil
}

func (r *runner) print(name string, results []eval.Result) {
	for _, res := range results {
		r.total++
		if res.Err != nil {
			r.failed++
			fmt.Fprintf(r.errOut, "%s: expression %d: %v\n", name, res.Index+1, res.Err)
			continue
		}
		fmt.Fprintln(r.out, res.Output)
		if r.stats {
			fmt.Fprintf(r.errOut, "%s: expression %d: %d passes, %s, %d nodes, %s\n",
				name, res.Index+1, res.Passes, res.Rules, res.Nodes, res.Duration)
		}
	}
}
