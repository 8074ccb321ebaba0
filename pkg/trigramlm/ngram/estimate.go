package ngram

import (
	"fmt"
	"math"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
)

// Normalizer resolves the context denominators used by the estimator.
//
// The all-start context occurs exactly once per sentence, but the padding
// scheme never counts it directly: unigram windows carry no start sentinel
// and bigram windows carry only one. Its denominator is therefore the
// sentence count. The counter itself is left untouched.
type Normalizer struct {
	counter   *Counter
	sentences int64
}

// NewNormalizer binds a normalizer to a counter
func NewNormalizer(c *Counter) Normalizer {
	return Normalizer{counter: c, sentences: c.Sentences()}
}

// Bigram returns the denominator for bigrams whose context is a
func (n Normalizer) Bigram(a string) int64 {
	if a == Start {
		return n.sentences
	}
	return n.counter.UnigramCount(a)
}

// Trigram returns the denominator for trigrams whose context is (a, b)
func (n Normalizer) Trigram(a, b string) int64 {
	if a == Start && b == Start {
		return n.sentences
	}
	return n.counter.BigramCount(a, b)
}

// Estimate converts counts into maximum-likelihood log2 probability tables.
// Only observed keys are emitted.
func Estimate(c *Counter) (*Model, error) {
	if c.Sentences() == 0 {
		return nil, fmt.Errorf("estimate: empty corpus: %w", internalerr.ErrInvalidInput)
	}
	// Unigram windows hold no start sentinel and one stop per sentence, so
	// anything beyond that came from the tokens themselves.
	if c.UnigramCount(Start) > 0 || c.UnigramCount(Stop) > c.Sentences() {
		return nil, fmt.Errorf("estimate: corpus contains reserved token %q or %q: %w", Start, Stop, internalerr.ErrInvalidInput)
	}

	total := c.TotalUnigrams()
	m := newModel(Meta{Sentences: c.Sentences(), Tokens: total})
	norm := NewNormalizer(c)

	logTotal := math.Log2(float64(total))
	for a, count := range c.unigrams {
		m.unigrams[a] = math.Log2(float64(count)) - logTotal
	}

	for key, count := range c.bigrams {
		denom := norm.Bigram(key[0])
		if denom <= 0 {
			return nil, fmt.Errorf("estimate: bigram %v has no context count: %w", key, internalerr.ErrInvalidInput)
		}
		m.bigrams[key] = math.Log2(float64(count)) - math.Log2(float64(denom))
	}

	for key, count := range c.trigrams {
		denom := norm.Trigram(key[0], key[1])
		if denom <= 0 {
			return nil, fmt.Errorf("estimate: trigram %v has no context count: %w", key, internalerr.ErrInvalidInput)
		}
		m.trigrams[key] = math.Log2(float64(count)) - math.Log2(float64(denom))
	}

	return m, nil
}
