package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JulianFrattini/cira/internal/cira"
	"github.com/JulianFrattini/cira/internal/cue"
)

// classification is the output of the classify command.
type classification struct {
	Sentence   string    `json:"sentence" yaml:"sentence"`
	Causal     bool      `json:"causal" yaml:"causal"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	Cues       []cue.Cue `json:"cues" yaml:"cues"`
}

func newClassifyCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <sentence>",
		Short: "Decide whether a sentence is causal",
		Long: `Decide whether a sentence is causal by its causal cue phrases
("if ... then", "unless", "because", ...) and list the cues found.

Examples:
  cira classify "If the button is pressed then the system shuts down."
  cira classify "The system shall log all events." --format yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sentence := strings.Join(args, " ")
			converter := cira.New(cue.Classifier{}, nil)

			causal, confidence, err := converter.Classify(cmd.Context(), sentence)
			if err != nil {
				return fmt.Errorf("%q: %w", sentence, err)
			}
			cues := cue.Find(sentence)
			if cues == nil {
				cues = []cue.Cue{}
			}
			return o.render(cmd.OutOrStdout(), classification{
				Sentence:   sentence,
				Causal:     causal,
				Confidence: confidence,
				Cues:       cues,
			})
		},
	}
}
