package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JulianFrattini/cira/internal/config"
	"github.com/JulianFrattini/cira/internal/logger"
	"github.com/JulianFrattini/cira/internal/logger/console"
)

// Build-time variables
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// SetVersion sets the version info from main
func SetVersion(v, c, d string) {
	Version = v
	Commit = c
	Date = d
}

// options are the global flags and the configuration loaded before every command
type options struct {
	format string
	debug  bool
	cfg    *config.Config
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "cira",
		Short: "cira - causal requirements to cause-effect graphs and test cases",
		Long: `Compile labeled causal requirement sentences into cause-effect graphs
and derive a minimal set of test cases from them.

Examples:
  cira graph requirement.yaml
  cira process requirements.json --save
  cira testsuite graph.json --format yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch o.format {
			case formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown format: %s (supported: %s, %s)", o.format, formatJSON, formatYAML)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			o.cfg = cfg
			logger.Init(console.New(console.Params{
				Debug:  o.debug || cfg.Debug,
				Output: cmd.ErrOrStderr(),
			}))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&o.format, "format", "f", formatJSON, "output format (json or yaml)")
	root.PersistentFlags().BoolVar(&o.debug, "debug", false, "log debug output")

	// classify (defined in classify.go)
	root.AddCommand(newClassifyCmd(o))

	// graph, testsuite, process (defined in convert.go)
	root.AddCommand(newGraphCmd(o))
	root.AddCommand(newTestSuiteCmd(o))
	root.AddCommand(newProcessCmd(o))

	// history (defined in history.go)
	root.AddCommand(newHistoryCmd(o))

	// import, export (defined in import_export.go)
	root.AddCommand(newExportCmd(o))
	root.AddCommand(newImportCmd(o))

	// serve, status, version (defined in serve.go)
	root.AddCommand(newServeCmd(o))
	root.AddCommand(newStatusCmd(o))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the cira command
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
