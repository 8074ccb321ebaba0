package ngram

import (
	"fmt"
	"math"
	"slices"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
)

// Model holds the unigram, bigram and trigram log2 probability tables.
// A Model is never mutated after construction and may be shared freely.
type Model struct {
	meta     Meta
	unigrams map[string]float64
	bigrams  map[[2]string]float64
	trigrams map[[3]string]float64
}

// Meta describes the corpus a model was estimated from. Models read back
// from text carry a zero Meta unless a manifest restores it.
type Meta struct {
	Sentences int64
	Tokens    int64
}

// Entry is one row of a probability table
type Entry struct {
	Gram    []string
	LogProb float64
}

func newModel(meta Meta) *Model {
	return &Model{
		meta:     meta,
		unigrams: make(map[string]float64),
		bigrams:  make(map[[2]string]float64),
		trigrams: make(map[[3]string]float64),
	}
}

// FromEntries builds a model from table rows, as produced by Entries or read
// back from storage. Rows must have an order of 1..3, a finite log
// probability no greater than zero, and must not repeat a key.
func FromEntries(entries []Entry, meta Meta) (*Model, error) {
	m := newModel(meta)
	for _, e := range entries {
		if err := m.put(e.Gram, e.LogProb); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Model) put(gram []string, lp float64) error {
	if err := CheckLogProb(lp); err != nil {
		return fmt.Errorf("%v: %w", gram, err)
	}

	var dup bool
	switch len(gram) {
	case 1:
		_, dup = m.unigrams[gram[0]]
		m.unigrams[gram[0]] = lp
	case 2:
		key := [2]string{gram[0], gram[1]}
		_, dup = m.bigrams[key]
		m.bigrams[key] = lp
	case 3:
		key := [3]string{gram[0], gram[1], gram[2]}
		_, dup = m.trigrams[key]
		m.trigrams[key] = lp
	default:
		return fmt.Errorf("n-gram %v has order %d: %w", gram, len(gram), internalerr.ErrInvalidInput)
	}
	if dup {
		return fmt.Errorf("n-gram %v: %w", gram, internalerr.ErrDuplicate)
	}
	return nil
}

// CheckLogProb rejects values that cannot be a log probability table entry
func CheckLogProb(lp float64) error {
	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		return fmt.Errorf("log probability %v is not finite: %w", lp, internalerr.ErrInvalidInput)
	}
	if lp > 0 {
		return fmt.Errorf("log probability %v is positive: %w", lp, internalerr.ErrInvalidInput)
	}
	return nil
}

// Meta returns the corpus metadata
func (m *Model) Meta() Meta {
	return m.meta
}

// WithMeta returns a model sharing the same tables with different metadata
func (m *Model) WithMeta(meta Meta) *Model {
	cp := *m
	cp.meta = meta
	return &cp
}

// Unigram returns the log2 probability of a
func (m *Model) Unigram(a string) (float64, bool) {
	lp, ok := m.unigrams[a]
	return lp, ok
}

// Bigram returns the log2 probability of b following a
func (m *Model) Bigram(a, b string) (float64, bool) {
	lp, ok := m.bigrams[[2]string{a, b}]
	return lp, ok
}

// Trigram returns the log2 probability of c following (a, b)
func (m *Model) Trigram(a, b, c string) (float64, bool) {
	lp, ok := m.trigrams[[3]string{a, b, c}]
	return lp, ok
}

// LogProb looks up a key of any order.
func (m *Model) LogProb(gram ...string) (float64, bool) {
	switch len(gram) {
	case 1:
		return m.Unigram(gram[0])
	case 2:
		return m.Bigram(gram[0], gram[1])
	case 3:
		return m.Trigram(gram[0], gram[1], gram[2])
	}
	return 0, false
}

// Len returns the number of entries in the order-n table
func (m *Model) Len(n int) int {
	switch n {
	case 1:
		return len(m.unigrams)
	case 2:
		return len(m.bigrams)
	case 3:
		return len(m.trigrams)
	}
	return 0
}

// Entries returns the order-n table sorted lexicographically by key tuple.
func (m *Model) Entries(n int) []Entry {
	out := make([]Entry, 0, m.Len(n))
	switch n {
	case 1:
		for k, lp := range m.unigrams {
			out = append(out, Entry{Gram: []string{k}, LogProb: lp})
		}
	case 2:
		for k, lp := range m.bigrams {
			out = append(out, Entry{Gram: []string{k[0], k[1]}, LogProb: lp})
		}
	case 3:
		for k, lp := range m.trigrams {
			out = append(out, Entry{Gram: []string{k[0], k[1], k[2]}, LogProb: lp})
		}
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return slices.Compare(a.Gram, b.Gram)
	})
	return out
}

// AllEntries returns every table, unigrams first, each sorted
func (m *Model) AllEntries() []Entry {
	out := make([]Entry, 0, m.Len(1)+m.Len(2)+m.Len(3))
	for n := 1; n <= MaxOrder; n++ {
		out = append(out, m.Entries(n)...)
	}
	return out
}
