package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nickandperla.net/ski/internal/parser"
)

func newFmtCmd() *cobra.Command {
	var (
		check bool
		write bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [files...]",
		Short: "Print programs in canonical, fully parenthesized form",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				formatted, err := format(src, "<stdin>")
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), formatted)
				return err
			}

			anyChanged := false
			for _, path := range args {
				changed, err := formatFile(cmd.OutOrStdout(), path, check, write)
				if err != nil {
					return err
				}
				anyChanged = anyChanged || changed
			}
			if check && anyChanged {
				return fmt.Errorf("files need formatting")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Report whether files need formatting without writing")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the file")

	return cmd
}

// format renders src canonically, keeping its comments.
func format(src []byte, name string) (string, error) {
	prog, err := parser.Parse(bytes.NewReader(src), name, parser.WithComments())
	if err != nil {
		return "", err
	}
	return prog.String(), nil
}

func formatFile(out io.Writer, path string, check, write bool) (bool, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	formatted, err := format(input, path)
	if err != nil {
		return false, err
	}
	changed := string(input) != formatted

	switch {
	case check:
		if changed {
			fmt.Fprintf(out, "%s needs formatting\n", path)
		}
	case write:
		if changed {
			if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
				return false, err
			}
		}
	default:
		_, err = io.WriteString(out, formatted)
	}
	return changed, err
}
