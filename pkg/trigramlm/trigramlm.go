package trigramlm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/cognicore/trigramlm/pkg/trigramlm/generate"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ingest"
	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
	"github.com/cognicore/trigramlm/pkg/trigramlm/score"
	"github.com/cognicore/trigramlm/pkg/trigramlm/store"
)

// LM is the language model facade: it trains models from raw text, scores
// corpora against them, samples sentences and persists results.
type LM struct {
	store    store.Store
	pipeline *ingest.Pipeline
	scoring  score.Options
	logger   *slog.Logger
	progress io.Writer
}

// Options configures an LM instance
type Options struct {
	Store    store.Store      // optional; Save/Load fail without one
	Pipeline *ingest.Pipeline // nil splits on whitespace
	Scoring  score.Options    // zero value means score.DefaultOptions
	Logger   *slog.Logger
	Progress io.Writer // progress bar destination while training; nil disables
}

// New creates an LM with the given dependencies
func New(opts Options) (*LM, error) {
	scoring := opts.Scoring
	if scoring == (score.Options{}) {
		scoring = score.DefaultOptions()
	}
	if err := scoring.Validate(); err != nil {
		return nil, err
	}

	pipeline := opts.Pipeline
	if pipeline == nil {
		pipeline = ingest.NewPipeline(nil, ingest.PipelineOptions{})
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &LM{
		store:    opts.Store,
		pipeline: pipeline,
		scoring:  scoring,
		logger:   logger,
		progress: opts.Progress,
	}, nil
}

// Close releases the store, if any
func (lm *LM) Close() error {
	if lm.store == nil {
		return nil
	}
	return lm.store.Close()
}

// ScoringOptions returns the validated floor and weights in use
func (lm *LM) ScoringOptions() score.Options {
	return lm.scoring
}

// Tokenize runs raw sentences through the ingestion pipeline
func (lm *LM) Tokenize(texts []string) [][]string {
	return lm.pipeline.ProcessAll(texts)
}

// Train tokenizes raw sentences and estimates a model from them
func (lm *LM) Train(texts []string) (*ngram.Model, error) {
	return lm.TrainTokens(lm.Tokenize(texts))
}

// TrainTokens estimates a model from already tokenized sentences
func (lm *LM) TrainTokens(corpus [][]string) (*ngram.Model, error) {
	start := time.Now()

	var bar *pb.ProgressBar
	if lm.progress != nil {
		bar = pb.New(len(corpus)).SetWriter(lm.progress)
		bar.Start()
	}

	counter := ngram.NewCounter()
	for _, sentence := range corpus {
		counter.AddSentence(sentence)
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	m, err := ngram.Estimate(counter)
	if err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}

	lm.logger.Info("model trained",
		"sentences", counter.Sentences(),
		"tokens", counter.TotalUnigrams(),
		"unigrams", m.Len(1),
		"bigrams", m.Len(2),
		"trigrams", m.Len(3),
		"elapsed", time.Since(start),
	)
	return m, nil
}

// Scores holds one value per input sentence for each scoring method
type Scores struct {
	Unigram      []float64
	Bigram       []float64
	Trigram      []float64
	Interpolated []float64
}

// Runs pairs each score run with its store kind, in file order
func (s *Scores) Runs() []Run {
	return []Run{
		{Kind: store.KindUnigram, Values: s.Unigram},
		{Kind: store.KindBigram, Values: s.Bigram},
		{Kind: store.KindTrigram, Values: s.Trigram},
		{Kind: store.KindInterpolated, Values: s.Interpolated},
	}
}

// Run is one named score run
type Run struct {
	Kind   string
	Values []float64
}

// Score scores every sentence of corpus against m, raw per order and
// interpolated. Output order follows input order.
func (lm *LM) Score(m *ngram.Model, corpus [][]string) (*Scores, error) {
	sc, err := score.New(m, lm.scoring)
	if err != nil {
		return nil, err
	}

	out := &Scores{}
	raw := []*[]float64{&out.Unigram, &out.Bigram, &out.Trigram}
	for i, dst := range raw {
		*dst, err = sc.RawAll(i+1, corpus)
		if err != nil {
			return nil, err
		}
	}
	out.Interpolated = sc.InterpolatedAll(corpus)

	impossible := 0
	for _, v := range out.Trigram {
		if v == sc.Floor() {
			impossible++
		}
	}
	lm.logger.Info("corpus scored",
		"sentences", len(corpus),
		"trigram_floor_hits", impossible,
	)
	return out, nil
}

// GenerateOptions configures sentence sampling
type GenerateOptions struct {
	Count  int
	MaxLen int         // per sentence cap; must be positive
	Order  int         // 0 means trigram
	Source rand.Source // nil seeds from the clock
}

// Sentence is one generated sentence. Complete is false when the length
// cap cut it off before the stop sentinel.
type Sentence struct {
	Tokens   []string
	Complete bool
}

// Generate samples opts.Count sentences from m
func (lm *LM) Generate(m *ngram.Model, opts GenerateOptions) ([]Sentence, error) {
	if opts.Count < 0 {
		return nil, fmt.Errorf("sentence count %d: %w", opts.Count, internalerr.ErrInvalidInput)
	}
	order := opts.Order
	if order == 0 {
		order = ngram.MaxOrder
	}
	src := opts.Source
	if src == nil {
		src = generate.NewSource(uint64(time.Now().UnixNano()))
	}

	g, err := generate.New(m, order, src)
	if err != nil {
		return nil, err
	}

	out := make([]Sentence, 0, opts.Count)
	truncated := 0
	for range opts.Count {
		tokens, complete, err := generate.Sentence(g, opts.MaxLen)
		if err != nil {
			return nil, err
		}
		if !complete {
			truncated++
		}
		out = append(out, Sentence{Tokens: tokens, Complete: complete})
	}

	if truncated > 0 {
		lm.logger.Warn("sentences hit the length cap", "truncated", truncated, "max_len", opts.MaxLen)
	}
	return out, nil
}

func (lm *LM) requireStore() error {
	if lm.store == nil {
		return fmt.Errorf("no model store configured: %w", internalerr.ErrStoreUnavailable)
	}
	return nil
}

// Save stores m under a new ID
func (lm *LM) Save(ctx context.Context, name string, m *ngram.Model) (store.ModelInfo, error) {
	if err := lm.requireStore(); err != nil {
		return store.ModelInfo{}, err
	}
	info, err := lm.store.SaveModel(ctx, store.ModelInfo{Name: name}, m)
	if err != nil {
		return store.ModelInfo{}, fmt.Errorf("save model: %w", err)
	}
	lm.logger.Info("model saved", "id", info.ID, "name", info.Name)
	return info, nil
}

// Load fetches a stored model
func (lm *LM) Load(ctx context.Context, id string) (store.ModelInfo, *ngram.Model, error) {
	if err := lm.requireStore(); err != nil {
		return store.ModelInfo{}, nil, err
	}
	return lm.store.LoadModel(ctx, id)
}

// Models lists stored models, oldest first
func (lm *LM) Models(ctx context.Context) ([]store.ModelInfo, error) {
	if err := lm.requireStore(); err != nil {
		return nil, err
	}
	return lm.store.ListModels(ctx)
}

// Delete removes a stored model and its score runs
func (lm *LM) Delete(ctx context.Context, id string) error {
	if err := lm.requireStore(); err != nil {
		return err
	}
	if err := lm.store.DeleteModel(ctx, id); err != nil {
		return err
	}
	lm.logger.Info("model deleted", "id", id)
	return nil
}

// SaveScores stores every score run of s against a model
func (lm *LM) SaveScores(ctx context.Context, modelID string, s *Scores) error {
	if err := lm.requireStore(); err != nil {
		return err
	}
	for _, run := range s.Runs() {
		if err := lm.store.SaveScores(ctx, modelID, run.Kind, run.Values); err != nil {
			return fmt.Errorf("save %s scores: %w", run.Kind, err)
		}
	}
	return nil
}
