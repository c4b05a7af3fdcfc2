package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JulianFrattini/cira/internal/cira"
	"github.com/JulianFrattini/cira/internal/cue"
	"github.com/JulianFrattini/cira/internal/logger"
	"github.com/JulianFrattini/cira/internal/mcp"
)

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"mcp"},
		Short:   "Start MCP server",
		Long: `Start the MCP server using stdio transport.

The server communicates via JSON-RPC over stdin/stdout. Sentences are
labeled from the sentence documents named by CIRA_ANNOTATIONS; tool calls
may also carry their labels inline.

Examples:
  cira serve
  CIRA_ANNOTATIONS=requirements.yaml cira mcp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			converter := cira.New(cue.Classifier{}, nil)
			if path := o.cfg.Annotations; path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("cannot read annotations: %w", err)
				}
				docs, err := cira.DecodeSentences(data)
				if err != nil {
					return fmt.Errorf("annotations %s: %w", path, err)
				}
				labeler := cira.NewDocumentLabeler(docs...)
				converter = cira.New(cue.Classifier{}, labeler)
				logger.Info("loaded annotations", "path", path, "sentences", len(docs))
			}

			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			server := mcp.NewServer(st, converter, cmd.InOrStdin(), cmd.OutOrStdout())
			return server.Start(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cira %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func newStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show requirement store statistics",
		Long: `Show the number of stored requirements, the database size and the
time of the last processed requirement.

Examples:
  cira status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := mcp.ReadStats(cmd.Context(), st)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cira Requirement Status:\n")
			fmt.Fprintf(out, "  Data Directory: %s\n", o.cfg.DataDir)
			fmt.Fprintf(out, "  Database: %s\n", o.cfg.DatabasePath())
			fmt.Fprintf(out, "  Total Requirements: %d\n", stats.TotalRequirements)
			fmt.Fprintf(out, "  Database Size: %s\n", stats.DatabaseSize)
			fmt.Fprintf(out, "  Last Activity: %s\n", stats.LastActivity)
			fmt.Fprintf(out, "  Classification Model: %s\n", orNone(o.cfg.ClassificationModel))
			fmt.Fprintf(out, "  Labeling Model: %s\n", orNone(o.cfg.LabelingModel))
			fmt.Fprintf(out, "  Annotations: %s\n", orNone(o.cfg.Annotations))
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
