package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(o *options) *cobra.Command {
	history := &cobra.Command{
		Use:   "history",
		Short: "Inspect processed requirements",
		Long: `List, show and forget requirements stored with 'cira process --save'.

Examples:
  cira history list
  cira history show V1StGXR8_Z5jdHi6B-myT
  cira history forget V1StGXR8_Z5jdHi6B-myT`,
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent requirements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requirements stored yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tCASES\tSENTENCE")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.CreatedAt.Format(time.DateTime), len(r.Suite.Cases), r.Sentence)
			}
			return w.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of requirements (0 for all)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored requirement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			r, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return o.render(cmd.OutOrStdout(), r)
		},
	}

	forget := &cobra.Command{
		Use:   "forget <id>",
		Short: "Delete a stored requirement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Forget(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", args[0])
			return nil
		},
	}

	history.AddCommand(list, show, forget)
	return history
}
