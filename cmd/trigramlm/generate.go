package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/trigramlm/pkg/trigramlm"
	"github.com/cognicore/trigramlm/pkg/trigramlm/codec"
	"github.com/cognicore/trigramlm/pkg/trigramlm/generate"
)

func newGenerateCmd() *cobra.Command {
	var src modelSource

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Sample sentences from a model",
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

			m, _, err := src.load(ctx, lm, cfg.Paths.OutDir)
			if err != nil {
				return err
			}

			seed := cfg.Generate.Seed
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			sentences, err := lm.Generate(m, trigramlm.GenerateOptions{
				Count:  cfg.Generate.Count,
				MaxLen: cfg.Generate.MaxLen,
				Order:  cfg.Generate.Order,
				Source: generate.NewSource(seed),
			})
			if err != nil {
				return err
			}

			lines := make([][]string, len(sentences))
			for i, s := range sentences {
				lines[i] = s.Tokens
			}
			return codec.WriteSentences(cmd.OutOrStdout(), lines)
		},
	}

	src.register(cmd)

	return cmd
}
