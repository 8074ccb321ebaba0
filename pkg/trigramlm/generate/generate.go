// Package generate samples sentences from an n-gram model.
//
// Generation is not guaranteed to terminate: if a reachable context has no
// path to the stop sentinel, Tokens streams forever. Sentence is the
// caller-side cap and is the only place a length bound is applied.
package generate

import (
	"fmt"
	"iter"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
)

// ctxKey holds up to two history tokens, right aligned. Lower orders leave
// the leading slots empty.
type ctxKey [2]string

type continuations struct {
	tokens []string
	probs  []float64
	dist   distuv.Categorical
}

// Generator draws tokens from the order-n table of a model. It owns its
// random source and is not safe for concurrent use.
type Generator struct {
	order int
	index map[ctxKey]*continuations
}

// NewSource returns a seeded source for reproducible generation
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// New indexes the order-n table of m by context. A nil src uses the global
// random source.
func New(m *ngram.Model, order int, src rand.Source) (*Generator, error) {
	if m == nil {
		return nil, fmt.Errorf("generator: nil model: %w", internalerr.ErrInvalidInput)
	}
	if !ngram.ValidOrder(order) {
		return nil, fmt.Errorf("generator: order %d: %w", order, internalerr.ErrInvalidInput)
	}

	g := &Generator{
		order: order,
		index: make(map[ctxKey]*continuations),
	}

	// Entries are sorted, so candidates within a context are too and a seeded
	// source replays the same sentences.
	for _, e := range m.Entries(order) {
		key := g.key(e.Gram[:order-1])
		c, ok := g.index[key]
		if !ok {
			c = &continuations{}
			g.index[key] = c
		}
		c.tokens = append(c.tokens, e.Gram[order-1])
		c.probs = append(c.probs, math.Exp2(e.LogProb))
	}

	for key, c := range g.index {
		if floats.Sum(c.probs) <= 0 {
			delete(g.index, key)
			continue
		}
		c.dist = distuv.NewCategorical(c.probs, src)
	}

	return g, nil
}

// Order returns the n-gram order the generator samples from
func (g *Generator) Order() int {
	return g.order
}

// Contexts returns the number of distinct contexts with continuations
func (g *Generator) Contexts() int {
	return len(g.index)
}

func (g *Generator) key(history []string) ctxKey {
	var k ctxKey
	copy(k[len(k)-len(history):], history)
	return k
}

func (g *Generator) start() ctxKey {
	start := make([]string, g.order-1)
	for i := range start {
		start[i] = ngram.Start
	}
	return g.key(start)
}

func (g *Generator) slide(c ctxKey, tok string) ctxKey {
	if g.order == 1 {
		return c
	}
	next := ctxKey{c[1], tok}
	if g.order == 2 {
		next[0] = ""
	}
	return next
}

// Continuations returns the candidate tokens for a history of order-1 tokens
// and their linear probabilities, in token order.
func (g *Generator) Continuations(history []string) ([]string, []float64) {
	if len(history) != g.order-1 {
		return nil, nil
	}
	c, ok := g.index[g.key(history)]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), c.tokens...), append([]float64(nil), c.probs...)
}

// Next draws the token following history, which must hold order-1 tokens.
func (g *Generator) Next(history []string) (string, error) {
	if len(history) != g.order-1 {
		return "", fmt.Errorf("history %v has %d tokens, want %d: %w", history, len(history), g.order-1, internalerr.ErrInvalidInput)
	}
	return g.next(g.key(history))
}

func (g *Generator) next(c ctxKey) (string, error) {
	cont, ok := g.index[c]
	if !ok {
		return "", fmt.Errorf("context %q: %w", c, internalerr.ErrDeadEnd)
	}
	return cont.tokens[int(cont.dist.Rand())], nil
}

// Tokens streams one sentence. The stream ends when the stop sentinel is
// drawn, which is never yielded, or after yielding an error.
func (g *Generator) Tokens() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		c := g.start()
		for {
			tok, err := g.next(c)
			if err != nil {
				yield("", err)
				return
			}
			if tok == ngram.Stop {
				return
			}
			if !yield(tok, nil) {
				return
			}
			c = g.slide(c, tok)
		}
	}
}

// Sentence collects at most maxLen tokens from g. complete reports whether
// the stop sentinel was reached within the cap.
func Sentence(g *Generator, maxLen int) (tokens []string, complete bool, err error) {
	if maxLen <= 0 {
		return nil, false, fmt.Errorf("max length %d: %w", maxLen, internalerr.ErrInvalidInput)
	}
	for tok, err := range g.Tokens() {
		if err != nil {
			return tokens, false, err
		}
		if len(tokens) == maxLen {
			return tokens, false, nil
		}
		tokens = append(tokens, tok)
	}
	return tokens, true, nil
}
