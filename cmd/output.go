package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JulianFrattini/cira/internal/store"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// render writes v to w in the selected format.
func (o *options) render(w io.Writer, v interface{}) error {
	if o.format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read input: %w", err)
	}
	return data, nil
}

// openStore opens the requirement store in the configured data directory.
func (o *options) openStore() (*store.Store, error) {
	st, err := store.New(o.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open requirement store: %w", err)
	}
	return st, nil
}

// single unwraps one-element lists so a single input yields a single document.
func single[T any](items []T) interface{} {
	if len(items) == 1 {
		return items[0]
	}
	return items
}
