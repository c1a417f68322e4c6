package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nickandperla.net/ski/pkg/ski"
)

const (
	prompt      = ">>> "
	promptCont  = "... "
	replHelpMsg = `Enter definitions and expressions; a missing final ";" is added.
End a line with \ to continue it.
  :defs          list session definitions
  :save <name>   persist a definition ("*" for all)
  :forget <name> remove a definition from the session and library
  :quit          exit (Ctrl+D also works)`
)

func newReplCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.newRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer g.flushMetrics()

			s := &session{rt: rt, ctx: cmd.Context()}
			if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				return s.runTerminal(f)
			}
			s.runBasic(cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
	}
}

// session is one REPL run over a runtime.
type session struct {
	rt  *ski.Runtime
	ctx context.Context
}

// runBasic handles non-TTY input (piped input).
func (s *session) runBasic(in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)
	fmt.Fprintln(out, "ski REPL (:help for commands)")
	var multiline strings.Builder

	for {
		if multiline.Len() > 0 {
			fmt.Fprint(out, promptCont)
		} else {
			fmt.Fprint(out, prompt)
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			multiline.WriteString("\n")
			continue
		}
		multiline.WriteString(line)
		input := multiline.String()
		multiline.Reset()

		if quit := s.handle(input, out); quit {
			return
		}
	}
}

// runTerminal puts the terminal in raw mode and uses term.Terminal for line
// editing and history.
func (s *session) runTerminal(f *os.File) error {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set raw mode: %v\n", err)
		s.runBasic(f, os.Stdout)
		return nil
	}
	defer term.Restore(fd, oldState)

	rw := struct {
		io.Reader
		io.Writer
	}{f, os.Stdout}
	t := term.NewTerminal(rw, prompt)
	if w, h, err := term.GetSize(fd); err == nil {
		t.SetSize(w, h)
	}
	fmt.Fprintln(t, "ski REPL (:help for commands)")

	var multiline strings.Builder
	for {
		line, err := t.ReadLine()
		if err != nil {
			return nil
		}
		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			multiline.WriteString("\n")
			t.SetPrompt(promptCont)
			continue
		}
		multiline.WriteString(line)
		input := multiline.String()
		multiline.Reset()
		t.SetPrompt(prompt)

		if quit := s.handle(input, t); quit {
			return nil
		}
	}
}

// handle runs one complete input and reports whether the session should end.
func (s *session) handle(input string, out io.Writer) bool {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return false
	case strings.HasPrefix(input, ":"):
		return s.command(input, out)
	}
	if !strings.HasSuffix(input, ";") {
		input += ";"
	}

	results, err := s.rt.EvalContext(s.ctx, input)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return false
	}
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(out, "Error: %v\n", res.Err)
			continue
		}
		fmt.Fprintln(out, res.Output)
	}
	return false
}

func (s *session) command(input string, out io.Writer) bool {
	fields := strings.Fields(input)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":help", ":h":
		fmt.Fprintln(out, replHelpMsg)
	case ":defs":
		for _, d := range s.rt.Definitions() {
			fmt.Fprintln(out, d.String())
		}
	case ":save":
		if arg == "*" {
			n, err := s.rt.PersistAll()
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				break
			}
			fmt.Fprintf(out, "saved %d definitions\n", n)
			break
		}
		if err := s.rt.Persist(arg); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	case ":forget":
		if err := s.rt.Forget(arg); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	default:
		fmt.Fprintf(out, "unknown command %s (:help lists commands)\n", fields[0])
	}
	return false
}
