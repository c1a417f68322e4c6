package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nickandperla.net/ski/internal/eval"
)

func newHistoryCmd(g *globals) *cobra.Command {
	var (
		limit  int
		failed bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently evaluated expressions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.newRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			runs, err := rt.History(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tSTATUS\tPASSES\tINPUT\tOUTPUT")
			for _, r := range runs {
				if failed {
					if st, ok := eval.ParseStatus(r.Status); ok && st == eval.StatusNormal {
						continue
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					humanize.Time(r.Ts), r.Status, humanize.Comma(int64(r.Passes)),
					abbreviate(r.Input, 40), abbreviate(r.Output, 40))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&failed, "failed", false, "Show only runs that did not reach normal form")
	return cmd
}

func abbreviate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
