package score

import (
	"errors"
	"math"
	"testing"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
)

func trainModel(t *testing.T, sentences ...[]string) *ngram.Model {
	t.Helper()
	c := ngram.NewCounter()
	for _, s := range sentences {
		c.AddSentence(s)
	}
	m, err := ngram.Estimate(c)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	return m
}

func newScorer(t *testing.T, m *ngram.Model) *Scorer {
	t.Helper()
	s, err := New(m, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestRawScoreSumsWindows(t *testing.T) {
	m := trainModel(t, []string{"a", "b"}, []string{"a", "c"})
	s := newScorer(t, m)

	got, err := s.Raw(2, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	// P(a|*) = 1, P(b|a) = 1/2, P(STOP|b) = 1
	if want := -1.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("Raw(2, a b) = %v, want %v", got, want)
	}

	got, err = s.Raw(1, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	// six unigram tokens: a=2, b=1, STOP=2
	want := math.Log2(2.0/6) + math.Log2(1.0/6) + math.Log2(2.0/6)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Raw(1, a b) = %v, want %v", got, want)
	}
}

func TestRawScoreMissingIsFloor(t *testing.T) {
	m := trainModel(t, []string{"a", "b"}, []string{"a", "c"})
	s := newScorer(t, m)

	for n := 1; n <= 3; n++ {
		got, err := s.Raw(n, []string{"a", "zzz"})
		if err != nil {
			t.Fatalf("Raw: %v", err)
		}
		if got != ImpossibleLogProb {
			t.Errorf("Raw(%d) with unseen token = %v, want %v", n, got, ImpossibleLogProb)
		}
	}

	// Seen tokens, unseen trigram
	got, _ := s.Raw(3, []string{"b", "a"})
	if got != ImpossibleLogProb {
		t.Errorf("Raw(3, b a) = %v, want floor", got)
	}
}

func TestRawScoreInvalidOrder(t *testing.T) {
	s := newScorer(t, trainModel(t, []string{"a"}))
	for _, n := range []int{0, 4} {
		if _, err := s.Raw(n, []string{"a"}); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("Raw(%d) error = %v, want ErrInvalidInput", n, err)
		}
	}
}

func TestInterpolatedSmoothingBenefit(t *testing.T) {
	m := trainModel(t,
		[]string{"the", "cat", "sat"},
		[]string{"the", "dog", "ran"},
	)
	s := newScorer(t, m)

	sent := []string{"the", "cat", "ran"}
	raw, err := s.Raw(3, sent)
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if raw != ImpossibleLogProb {
		t.Fatalf("raw trigram score = %v, want floor", raw)
	}

	lin := s.Interpolated(sent)
	if math.IsNaN(lin) || math.IsInf(lin, 0) {
		t.Fatalf("interpolated score is not finite: %v", lin)
	}
	if lin <= raw {
		t.Errorf("interpolated %v should exceed raw %v", lin, raw)
	}
}

func TestInterpolatedAllMissingStaysFinite(t *testing.T) {
	s := newScorer(t, trainModel(t, []string{"a"}))

	got := s.Interpolated([]string{"x", "y"})
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("interpolated score is not finite: %v", got)
	}
	// only the STOP unigram is known
	if got >= 0 {
		t.Errorf("interpolated score = %v, want negative", got)
	}
}

func TestInterpolatedMatchesFormula(t *testing.T) {
	m := trainModel(t, []string{"a", "b"}, []string{"a", "c"})
	s := newScorer(t, m)

	want := 0.0
	for _, w := range ngram.Windows([]string{"a", "b"}, 3) {
		p3, _ := m.Trigram(w[0], w[1], w[2])
		p2, _ := m.Bigram(w[1], w[2])
		p1, _ := m.Unigram(w[2])
		want += math.Log2((math.Exp2(p3) + math.Exp2(p2) + math.Exp2(p1)) / 3)
	}

	got := s.Interpolated([]string{"a", "b"})
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Interpolated = %v, want %v", got, want)
	}
}

func TestScoresDeterministicAndOrdered(t *testing.T) {
	m := trainModel(t, []string{"a", "b"}, []string{"b", "a"}, []string{"a"})
	s := newScorer(t, m)

	corpus := [][]string{{"a", "b"}, {"zzz"}, {"b", "a"}, {}}
	first, err := s.RawAll(3, corpus)
	if err != nil {
		t.Fatalf("RawAll: %v", err)
	}
	second, _ := s.RawAll(3, corpus)
	for i := range first {
		if math.Float64bits(first[i]) != math.Float64bits(second[i]) {
			t.Errorf("score %d differs between runs: %v vs %v", i, first[i], second[i])
		}
		single, _ := s.Raw(3, corpus[i])
		if single != first[i] {
			t.Errorf("RawAll[%d] = %v, Raw = %v", i, first[i], single)
		}
	}
	if first[1] != ImpossibleLogProb {
		t.Errorf("unseen sentence scored %v", first[1])
	}

	lin := s.InterpolatedAll(corpus)
	for i := range corpus {
		if lin[i] != s.Interpolated(corpus[i]) {
			t.Errorf("InterpolatedAll[%d] out of order", i)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"default", DefaultOptions(), true},
		{"custom weights", Options{Floor: -500, Weights: Weights{Unigram: 0.1, Bigram: 0.3, Trigram: 0.6}}, true},
		{"positive floor", Options{Floor: 1, Weights: EqualWeights()}, false},
		{"underflowing floor", Options{Floor: -1100, Weights: EqualWeights()}, false},
		{"infinite floor", Options{Floor: math.Inf(-1), Weights: EqualWeights()}, false},
		{"weights sum", Options{Floor: -1000, Weights: Weights{Unigram: 0.5, Bigram: 0.5, Trigram: 0.5}}, false},
		{"negative weight", Options{Floor: -1000, Weights: Weights{Unigram: -0.5, Bigram: 0.5, Trigram: 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
