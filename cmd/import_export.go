package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JulianFrattini/cira/internal/bundle"
	"github.com/JulianFrattini/cira/internal/logger"
	"github.com/JulianFrattini/cira/internal/store"
)

func newExportCmd(o *options) *cobra.Command {
	var name, description, author string

	cmd := &cobra.Command{
		Use:   "export [output]",
		Short: "Export stored requirements to a .cira bundle",
		Long: `Export all stored requirements into a .cira bundle.

If no output path is given, a default filename is generated.

Examples:
  cira export
  cira export release-1.cira --name "Release 1"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := fmt.Sprintf("cira-export-%s.cira", time.Now().Format("2006-01-02-150405"))
			if len(args) == 1 {
				output = args[0]
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
			}

			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.List(cmd.Context(), 0)
			if err != nil {
				return err
			}
			plain := make([]store.Record, 0, len(records))
			for _, r := range records {
				plain = append(plain, *r)
			}

			manifest, err := bundle.NewManifest(name, plain)
			if err != nil {
				return err
			}
			manifest.Description = description
			manifest.Author = author

			if err := bundle.Package(manifest, plain, output); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d requirement(s) to %s\n", len(plain), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "bundle name (default: output file name)")
	cmd.Flags().StringVar(&description, "description", "", "bundle description")
	cmd.Flags().StringVar(&author, "author", "", "bundle author")
	return cmd
}

func newImportCmd(o *options) *cobra.Command {
	var inspect bool

	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Import requirements from a .cira bundle",
		Long: `Import the requirements of a .cira bundle. Requirements whose id or
sentence is already stored are skipped.

Examples:
  cira import release-1.cira
  cira import release-1.cira --inspect`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspect {
				manifest, err := bundle.Inspect(args[0])
				if err != nil {
					return err
				}
				return o.render(cmd.OutOrStdout(), manifest)
			}

			payload, err := bundle.Unpack(args[0])
			if err != nil {
				return err
			}

			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			added := 0
			for _, r := range payload.Requirements {
				ok, err := st.Add(cmd.Context(), r)
				if err != nil {
					return fmt.Errorf("import failed: %w", err)
				}
				if ok {
					added++
				} else {
					logger.Debug("skipping known requirement", "id", r.ID)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d requirement(s) from %q\n", added, len(payload.Requirements), payload.Manifest.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&inspect, "inspect", false, "only print the bundle manifest")
	return cmd
}
