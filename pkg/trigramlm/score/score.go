package score

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
)

// ImpossibleLogProb is the log2 score given to a sentence containing an
// n-gram the model never saw, and the value substituted for a missing entry
// during interpolation. Changing it changes how such sentences rank against
// each other across models.
const ImpossibleLogProb = -1000.0

// minFloor keeps 2^floor a positive normal float64 so the interpolated
// logarithm stays finite.
const minFloor = -1022.0

// Weights are the linear interpolation coefficients per order.
type Weights struct {
	Unigram float64
	Bigram  float64
	Trigram float64
}

// EqualWeights gives every order the same share.
func EqualWeights() Weights {
	return Weights{Unigram: 1.0 / 3, Bigram: 1.0 / 3, Trigram: 1.0 / 3}
}

// Options configures a Scorer
type Options struct {
	Floor   float64
	Weights Weights
}

// DefaultOptions returns the -1000 floor with equal weights
func DefaultOptions() Options {
	return Options{
		Floor:   ImpossibleLogProb,
		Weights: EqualWeights(),
	}
}

// Validate checks that interpolation can never produce NaN or -Inf.
func (o Options) Validate() error {
	if math.IsNaN(o.Floor) || math.IsInf(o.Floor, 0) || o.Floor > 0 || o.Floor < minFloor {
		return fmt.Errorf("floor %v outside [%v, 0]: %w", o.Floor, minFloor, internalerr.ErrInvalidConfig)
	}
	w := []float64{o.Weights.Unigram, o.Weights.Bigram, o.Weights.Trigram}
	for _, x := range w {
		if math.IsNaN(x) || x < 0 {
			return fmt.Errorf("interpolation weight %v is negative: %w", x, internalerr.ErrInvalidConfig)
		}
	}
	if sum := floats.Sum(w); math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("interpolation weights sum to %v, want 1: %w", sum, internalerr.ErrInvalidConfig)
	}
	return nil
}

// Scorer computes sentence log2 probabilities against a fixed model
type Scorer struct {
	model   *ngram.Model
	floor   float64
	weights []float64 // trigram, bigram, unigram
}

// New creates a scorer. The model is only read.
func New(m *ngram.Model, opts Options) (*Scorer, error) {
	if m == nil {
		return nil, fmt.Errorf("scorer: nil model: %w", internalerr.ErrInvalidInput)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{
		model:   m,
		floor:   opts.Floor,
		weights: []float64{opts.Weights.Trigram, opts.Weights.Bigram, opts.Weights.Unigram},
	}, nil
}

// Floor returns the score used for impossible sentences
func (s *Scorer) Floor() float64 {
	return s.floor
}

// Raw sums the order-n log probability of every window of the sentence.
// If any window is missing from the table the sentence scores the floor.
func (s *Scorer) Raw(n int, tokens []string) (float64, error) {
	if !ngram.ValidOrder(n) {
		return 0, fmt.Errorf("raw score: order %d: %w", n, internalerr.ErrInvalidInput)
	}

	total := 0.0
	for _, w := range ngram.Windows(tokens, n) {
		lp, ok := s.model.LogProb(w...)
		if !ok {
			return s.floor, nil
		}
		total += lp
	}
	return total, nil
}

// RawAll scores each sentence with Raw, preserving input order
func (s *Scorer) RawAll(n int, corpus [][]string) ([]float64, error) {
	scores := make([]float64, len(corpus))
	for i, sent := range corpus {
		v, err := s.Raw(n, sent)
		if err != nil {
			return nil, err
		}
		scores[i] = v
	}
	return scores, nil
}

// Interpolated scores a sentence with linear interpolation of the trigram,
// bigram and unigram estimates of every trigram window.
func (s *Scorer) Interpolated(tokens []string) float64 {
	linear := make([]float64, 3)
	total := 0.0
	for _, w := range ngram.Windows(tokens, 3) {
		linear[0] = math.Exp2(s.lookup(w...))
		linear[1] = math.Exp2(s.lookup(w[1:]...))
		linear[2] = math.Exp2(s.lookup(w[2:]...))
		total += math.Log2(floats.Dot(s.weights, linear))
	}
	return total
}

// InterpolatedAll scores each sentence with Interpolated, preserving input order
func (s *Scorer) InterpolatedAll(corpus [][]string) []float64 {
	scores := make([]float64, len(corpus))
	for i, sent := range corpus {
		scores[i] = s.Interpolated(sent)
	}
	return scores
}

func (s *Scorer) lookup(gram ...string) float64 {
	if lp, ok := s.model.LogProb(gram...); ok {
		return lp
	}
	return s.floor
}
