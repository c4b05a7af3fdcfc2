package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JulianFrattini/cira/internal/cira"
	"github.com/JulianFrattini/cira/internal/graph"
	"github.com/JulianFrattini/cira/internal/store"
	"github.com/JulianFrattini/cira/internal/testsuite"
)

// loadSentences reads sentence documents and returns them with a converter
// that labels from them.
func loadSentences(cmd *cobra.Command, path string) ([]cira.SentenceDocument, *cira.Converter, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, nil, err
	}
	docs, err := cira.DecodeSentences(data)
	if err != nil {
		return nil, nil, err
	}
	labeler := cira.NewDocumentLabeler(docs...)
	return docs, cira.New(labeler, labeler), nil
}

func newGraphCmd(o *options) *cobra.Command {
	var expression bool

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Generate cause-effect graphs from labeled sentences",
		Long: `Generate the cause-effect graph of every sentence in a file of
sentence documents ({sentence, labels}). Use - to read from stdin.

Examples:
  cira graph requirement.json
  cira graph requirements.yaml --expression`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, converter, err := loadSentences(cmd, args[0])
			if err != nil {
				return err
			}

			graphs := make([]graph.Document, 0, len(docs))
			for _, doc := range docs {
				all, err := converter.Label(cmd.Context(), doc.Sentence)
				if err != nil {
					return err
				}
				g, err := converter.Graph(doc.Sentence, all)
				if err != nil {
					return fmt.Errorf("%q: %w", doc.Sentence, err)
				}
				if expression {
					fmt.Fprintln(cmd.OutOrStdout(), g.String())
					continue
				}
				graphs = append(graphs, g.Document())
			}
			if expression {
				return nil
			}
			return o.render(cmd.OutOrStdout(), single(graphs))
		},
	}
	cmd.Flags().BoolVarP(&expression, "expression", "e", false, "print the boolean expression of each graph instead of the document")
	return cmd
}

func newTestSuiteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "testsuite <file>",
		Short: "Derive a test suite from a graph document",
		Long: `Derive a minimal test suite from a cause-effect graph document
({nodes, root, edges}). Use - to read from stdin.

Examples:
  cira testsuite graph.json
  cira graph requirement.json | cira testsuite -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var doc graph.Document
			if err := cira.Decode(data, &doc); err != nil {
				return fmt.Errorf("failed to decode graph: %w", err)
			}
			g, err := graph.FromDocument(doc)
			if err != nil {
				return err
			}
			suite, err := testsuite.Convert(g)
			if err != nil {
				return err
			}
			return o.render(cmd.OutOrStdout(), suite)
		},
	}
}

func newProcessCmd(o *options) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Derive labels, graph and test suite of labeled sentences",
		Long: `Run the full conversion for every sentence in a file of sentence
documents. With --save the results are stored in the requirement history.

Examples:
  cira process requirements.yaml
  cira process requirement.json --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, converter, err := loadSentences(cmd, args[0])
			if err != nil {
				return err
			}

			results := make([]*cira.Result, 0, len(docs))
			for _, doc := range docs {
				result, err := converter.Process(cmd.Context(), doc.Sentence)
				if err != nil {
					return fmt.Errorf("%q: %w", doc.Sentence, err)
				}
				results = append(results, result)
			}

			if !save {
				out := make([]cira.ResultDocument, 0, len(results))
				for _, r := range results {
					out = append(out, r.Document())
				}
				return o.render(cmd.OutOrStdout(), single(out))
			}

			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			saved := make([]store.Record, 0, len(results))
			for _, r := range results {
				rec, err := st.Save(cmd.Context(), store.NewRecord(r))
				if err != nil {
					return err
				}
				saved = append(saved, *rec)
			}
			return o.render(cmd.OutOrStdout(), single(saved))
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the results in the requirement history")
	return cmd
}
