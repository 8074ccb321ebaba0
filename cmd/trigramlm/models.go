package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Stored model commands",
	}

	cmd.AddCommand(newModelsListCmd())
	cmd.AddCommand(newModelsDeleteCmd())
	return cmd
}

func newModelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List models in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			lm, err := newLM(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer lm.Close()

			models, err := lm.Models(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCREATED\tSENTENCES\tUNIGRAMS\tBIGRAMS\tTRIGRAMS")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					m.ID, m.Name, m.CreatedAt.Format(time.RFC3339),
					m.Sentences, m.Unigrams, m.Bigrams, m.Trigrams)
			}
			return tw.Flush()
		},
	}
}

func newModelsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored model and its scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			lm, err := newLM(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer lm.Close()

			return lm.Delete(ctx, args[0])
		},
	}
}
