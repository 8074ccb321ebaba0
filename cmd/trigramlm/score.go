package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cognicore/trigramlm/pkg/trigramlm"
	"github.com/cognicore/trigramlm/pkg/trigramlm/codec"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ingest"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
	"github.com/cognicore/trigramlm/pkg/trigramlm/store"
)

// scoreFiles names the output file of each score run
var scoreFiles = map[string]string{
	store.KindUnigram:      "unigram_scores.txt",
	store.KindBigram:       "bigram_scores.txt",
	store.KindTrigram:      "trigram_scores.txt",
	store.KindInterpolated: "linear_scores.txt",
}

// modelSource selects a text model file or a stored model
type modelSource struct {
	path string
	id   string
}

func (s *modelSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.path, "model", "", "Text model file (defaults to <out_dir>/"+modelFile+")")
	cmd.Flags().StringVar(&s.id, "model-id", "", "Load the model from the store instead of a file")
}

// load returns the model and the ID it is known under, if any. A manifest
// next to a text model restores the corpus metadata.
func (s *modelSource) load(ctx context.Context, lm *trigramlm.LM, outDir string) (*ngram.Model, string, error) {
	if s.id != "" {
		info, m, err := lm.Load(ctx, s.id)
		if err != nil {
			return nil, "", err
		}
		return m, info.ID, nil
	}

	path := s.path
	if path == "" {
		path = filepath.Join(outDir, modelFile)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, err := codec.ReadModel(f)
	if err != nil {
		return nil, "", fmt.Errorf("read model %s: %w", path, err)
	}

	mf, err := codec.LoadManifest(filepath.Join(filepath.Dir(path), manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return m, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	if !mf.Matches(m) {
		slog.Warn("manifest does not describe model, ignoring it", "model", path, "manifest_id", mf.ID)
		return m, "", nil
	}
	return m.WithMeta(mf.Meta()), mf.ID, nil
}

func newScoreCmd() *cobra.Command {
	var (
		src  modelSource
		tsv  bool
		save bool
	)

	cmd := &cobra.Command{
		Use:   "score <sentences>",
		Short: "Score a corpus with raw and interpolated log2 probabilities",
		Long: "Score reads one tokenized sentence per line (the corpus.txt format), or a\n" +
			"tab-separated corpus with --tsv, and writes one score file per method.",
		Args: cobra.ExactArgs(1),
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

			m, modelID, err := src.load(ctx, lm, cfg.Paths.OutDir)
			if err != nil {
				return err
			}

			var corpus [][]string
			if tsv {
				texts, err := readCorpusFile(args[0], ingest.CorpusOptions{
					TextColumn: cfg.Corpus.TextColumn,
					SkipHeader: cfg.Corpus.SkipHeader,
				})
				if err != nil {
					return err
				}
				corpus = lm.Tokenize(texts)
			} else {
				corpus, err = readSentencesFile(args[0])
				if err != nil {
					return err
				}
			}

			scores, err := lm.Score(m, corpus)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.Paths.OutDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			for _, run := range scores.Runs() {
				path := filepath.Join(cfg.Paths.OutDir, scoreFiles[run.Kind])
				if err := writeFile(path, func(w io.Writer) error {
					return codec.WriteScores(w, run.Values)
				}); err != nil {
					return err
				}
			}

			if save {
				if modelID == "" {
					return fmt.Errorf("--save needs a stored model: pass --model-id or train with store.db_path set")
				}
				if err := lm.SaveScores(ctx, modelID, scores); err != nil {
					return err
				}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "scored %d sentences -> %s\n", len(corpus), cfg.Paths.OutDir)
			return err
		},
	}

	src.register(cmd)
	cmd.Flags().BoolVar(&tsv, "tsv", false, "Input is a tab-separated corpus of raw text")
	cmd.Flags().BoolVar(&save, "save", false, "Store the scores with the model")

	return cmd
}

func readSentencesFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sentences, err := ingest.ReadSentences(f)
	if err != nil {
		return nil, fmt.Errorf("read sentences %s: %w", path, err)
	}
	return sentences, nil
}
