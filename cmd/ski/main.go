// Command ski is the SKI combinator normalizer CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nickandperla.net/ski/internal/config"
	"nickandperla.net/ski/internal/logger"
	"nickandperla.net/ski/internal/metrics"
	"nickandperla.net/ski/internal/parser"
	"nickandperla.net/ski/pkg/ski"
)

// Version information set at build time.
var version = "0.1.0"

// globals holds the persistent flags and what PersistentPreRunE builds from
// them.
type globals struct {
	configPath      string
	dbPath          string
	noDB            bool
	maxPasses       int
	maxNodes        int
	timeout         time.Duration
	logLevel        string
	logJSON         bool
	prelude         bool
	metricsTextfile string

	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics
}

// flagKeys maps persistent flags to configuration keys. A flag given on the
// command line overrides the file and the environment.
var flagKeys = map[string]string{
	"db":               "store.path",
	"no-db":            "store.disabled",
	"max-passes":       "limits.max_passes",
	"max-nodes":        "limits.max_nodes",
	"timeout":          "limits.timeout",
	"log-level":        "log.level",
	"log-json":         "log.json",
	"prelude":          "prelude",
	"metrics-textfile": "metrics.textfile",
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "ski",
		Short: "Reduce SKI combinator expressions to normal form",
		Long: `ski parses programs of "def name = expr;" definitions followed by
expressions, inlines the definitions and rewrites every expression with
the S, K and I rules until nothing changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "ski.yaml", "Path to YAML configuration file")
	pf.StringVar(&g.dbPath, "db", config.DefaultDBPath, "SQLite library path")
	pf.BoolVar(&g.noDB, "no-db", false, "Do not open the library database")
	pf.IntVar(&g.maxPasses, "max-passes", 0, "Maximum changing passes per expression (0 disables)")
	pf.IntVar(&g.maxNodes, "max-nodes", 0, "Maximum expression size (0 disables)")
	pf.DurationVar(&g.timeout, "timeout", 0, "Time limit per expression (0 disables)")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.BoolVar(&g.logJSON, "log-json", false, "Log as JSON")
	pf.BoolVar(&g.prelude, "prelude", false, "Load the standard prelude")
	pf.StringVar(&g.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newReplCmd(g))
	root.AddCommand(newFmtCmd())
	root.AddCommand(newDefCmd(g))
	root.AddCommand(newHistoryCmd(g))
	root.AddCommand(newVersionCmd())

	return root
}

// setup loads the configuration and initializes logging.
func (g *globals) setup(cmd *cobra.Command) error {
	overrides := make(map[string]any)
	flags := cmd.Flags()
	for flag, key := range flagKeys {
		if !flags.Changed(flag) {
			continue
		}
		f := flags.Lookup(flag)
		overrides[key] = f.Value.String()
	}

	cfg, err := config.Load(cmd.Context(), g.configPath, overrides)
	if err != nil {
		return err
	}
	g.cfg = cfg

	level, _ := logger.ParseLevel(cfg.Log.Level)
	logCfg := logger.DefaultConfig()
	logCfg.Level = level
	logCfg.JSON = cfg.Log.JSON
	logCfg.Output = cmd.ErrOrStderr()
	logger.Init(logCfg)
	g.log = logger.GetDefault()

	if cfg.Metrics.Textfile != "" {
		g.metrics = metrics.New()
	}
	return nil
}

// newRuntime builds a runtime from the loaded configuration. withStore false
// skips the library database regardless of the configuration.
func (g *globals) newRuntime(withStore bool) (*ski.Runtime, error) {
	opts := []ski.Option{
		ski.WithLimits(g.cfg.EvalLimits()),
		ski.WithLogger(g.log),
	}
	if withStore && !g.cfg.Store.Disabled {
		opts = append(opts, ski.WithSQLiteStore(g.cfg.Store.Path))
		if g.cfg.Store.History {
			opts = append(opts, ski.WithHistory())
		}
	}
	if g.cfg.Prelude {
		opts = append(opts, ski.WithPrelude())
	}
	if g.metrics != nil {
		opts = append(opts, ski.WithMetrics(g.metrics))
	}
	return ski.New(opts...)
}

// flushMetrics writes the metrics textfile, if one is configured.
func (g *globals) flushMetrics() {
	if g.metrics == nil {
		return
	}
	if err := g.metrics.WriteTextfile(g.cfg.Metrics.Textfile); err != nil {
		g.log.Warn("metrics not written", "path", g.cfg.Metrics.Textfile, "err", err)
	}
}

// exitCode is 2 for syntax errors and 1 for every other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case parser.IsSyntaxError(err):
		return 2
	default:
		return 1
	}
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
