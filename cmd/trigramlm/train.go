package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/trigramlm/pkg/trigramlm/codec"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ingest"
	"github.com/cognicore/trigramlm/pkg/trigramlm/store"
)

// Output file names
const (
	corpusFile   = "corpus.txt"
	modelFile    = "ngram_probs.txt"
	manifestFile = "manifest.yaml"
)

func newTrainCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "train <corpus.tsv>",
		Short: "Estimate a model from a tab-separated corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			texts, err := readCorpusFile(args[0], ingest.CorpusOptions{
				TextColumn: cfg.Corpus.TextColumn,
				SkipHeader: cfg.Corpus.SkipHeader,
			})
			if err != nil {
				return err
			}

			lm, err := newLM(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer lm.Close()

			corpus := lm.Tokenize(texts)
			m, err := lm.TrainTokens(corpus)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.Paths.OutDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			var id string
			created := time.Now().UTC()
			if cfg.Store.DBPath != "" {
				info, err := lm.Save(ctx, name, m)
				if err != nil {
					return err
				}
				id, created = info.ID, info.CreatedAt
			} else {
				id = store.NewID()
			}

			out := cfg.Paths.OutDir
			if err := writeFile(filepath.Join(out, corpusFile), func(w io.Writer) error {
				return codec.WriteSentences(w, corpus)
			}); err != nil {
				return err
			}
			if err := writeFile(filepath.Join(out, modelFile), func(w io.Writer) error {
				return codec.WriteModel(w, m)
			}); err != nil {
				return err
			}
			mf := codec.NewManifest(id, name, m, lm.ScoringOptions().Floor, created)
			if err := writeFile(filepath.Join(out, manifestFile), func(w io.Writer) error {
				return codec.WriteManifest(w, mf)
			}); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "model %s: %d sentences, %d unigrams, %d bigrams, %d trigrams -> %s\n",
				id, mf.Sentences, mf.Unigrams, mf.Bigrams, mf.Trigrams, out)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Model name (defaults to the corpus file name)")

	return cmd
}

func readCorpusFile(path string, opts ingest.CorpusOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	texts, err := ingest.ReadCorpus(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return texts, nil
}
