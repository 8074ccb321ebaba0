package ingest

import (
	"strings"

	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
)

// Pipeline orchestrates sentence preparation:
// text → markup stripping → tokenization → tag removal → filtering
type Pipeline struct {
	tokenizer   Tokenizer
	stripMarkup bool
	lowercase   bool
	stopwords   map[string]struct{}
}

// PipelineOptions configures the optional pipeline stages
type PipelineOptions struct {
	StripMarkup bool
	Lowercase   bool
	Stopwords   []string
}

// NewPipeline creates a pipeline around a tokenizer. A nil tokenizer splits
// on whitespace.
func NewPipeline(tokenizer Tokenizer, opts PipelineOptions) *Pipeline {
	if tokenizer == nil {
		tokenizer = WhitespaceTokenizer{}
	}
	p := &Pipeline{
		tokenizer:   tokenizer,
		stripMarkup: opts.StripMarkup,
		lowercase:   opts.Lowercase,
		stopwords:   make(map[string]struct{}, len(opts.Stopwords)),
	}
	for _, w := range opts.Stopwords {
		p.AddStopword(w)
	}
	return p
}

// Process turns one raw sentence into the token strings the model sees.
// Tokens spelled like a sentence boundary sentinel are dropped.
func (p *Pipeline) Process(text string) []string {
	if p.stripMarkup {
		text = StripMarkup(text)
	}

	tokens := p.tokenizer.Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, word := range Texts(tokens) {
		if p.lowercase {
			word = strings.ToLower(word)
		}
		if p.isStopword(word) || ngram.Reserved(word) {
			continue
		}
		out = append(out, word)
	}
	return out
}

// ProcessAll runs every text through Process, preserving order
func (p *Pipeline) ProcessAll(texts []string) [][]string {
	out := make([][]string, len(texts))
	for i, text := range texts {
		out[i] = p.Process(text)
	}
	return out
}

func (p *Pipeline) normalize(word string) string {
	if p.lowercase {
		return strings.ToLower(word)
	}
	return word
}

func (p *Pipeline) isStopword(word string) bool {
	_, ok := p.stopwords[word]
	return ok
}

// AddStopword adds a word to the filter list
func (p *Pipeline) AddStopword(word string) {
	p.stopwords[p.normalize(word)] = struct{}{}
}

// RemoveStopword removes a word from the filter list
func (p *Pipeline) RemoveStopword(word string) {
	delete(p.stopwords, p.normalize(word))
}
