package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newDefCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "def",
		Short: "Manage the persisted definition library",
	}
	cmd.AddCommand(newDefListCmd(g))
	cmd.AddCommand(newDefSaveCmd(g))
	cmd.AddCommand(newDefRmCmd(g))
	cmd.AddCommand(newDefLogCmd(g))
	return cmd
}

func newDefListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted definitions in definition order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.newRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			defs, err := rt.Library()
			if err != nil {
				return err
			}
			for _, d := range defs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", d)
			}
			return nil
		},
	}
}

func newDefSaveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "save <files...>",
		Short: "Load definitions from files and persist them",
		Long: `save resolves the definitions of each file against the library and
persists them. Expressions in the files are ignored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.newRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			saved := 0
			for _, path := range args {
				names, err := rt.LoadFile(path)
				if err != nil {
					return err
				}
				for _, name := range names {
					if err := rt.Persist(name); err != nil {
						return err
					}
				}
				saved += len(names)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s %s\n", humanize.Comma(int64(saved)), plural(saved, "definition", "definitions"))
			return nil
		},
	}
}

func newDefRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <names...>",
		Short: "Remove definitions from the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.newRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, name := range args {
				if err := rt.Forget(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newDefLogCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log <name>",
		Short: "Show earlier bodies of a persisted definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.newRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			versions, err := rt.Versions(args[0], limit)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				return fmt.Errorf("%s: not in the library", args[0])
			}
			for _, v := range versions {
				fmt.Fprintf(cmd.OutOrStdout(), "v%d\t%s\t%s\n", v.Version, humanize.Time(v.Ts), v.Body)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum versions to show (0 for all)")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
