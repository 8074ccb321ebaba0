package ngram

// Counter aggregates unigram, bigram and trigram occurrence counts
type Counter struct {
	sentences int64
	unigrams  map[string]int64
	bigrams   map[[2]string]int64
	trigrams  map[[3]string]int64
}

// NewCounter creates an empty counter
func NewCounter() *Counter {
	return &Counter{
		unigrams: make(map[string]int64),
		bigrams:  make(map[[2]string]int64),
		trigrams: make(map[[3]string]int64),
	}
}

// AddSentence counts every window of a tokenized sentence. Each order is
// padded independently: unigrams see no start sentinel, bigrams see one,
// trigrams see two.
func (c *Counter) AddSentence(tokens []string) {
	c.sentences++

	for _, w := range Windows(tokens, 1) {
		c.unigrams[w[0]]++
	}
	for _, w := range Windows(tokens, 2) {
		c.bigrams[[2]string{w[0], w[1]}]++
	}
	for _, w := range Windows(tokens, 3) {
		c.trigrams[[3]string{w[0], w[1], w[2]}]++
	}
}

// Sentences returns the number of sentences added
func (c *Counter) Sentences() int64 {
	return c.sentences
}

// TotalUnigrams returns the sum of all unigram counts, stop sentinels included
func (c *Counter) TotalUnigrams() int64 {
	var total int64
	for _, n := range c.unigrams {
		total += n
	}
	return total
}

// UnigramCount returns the raw count of a
func (c *Counter) UnigramCount(a string) int64 {
	return c.unigrams[a]
}

// BigramCount returns the raw count of (a, b)
func (c *Counter) BigramCount(a, b string) int64 {
	return c.bigrams[[2]string{a, b}]
}

// TrigramCount returns the raw count of (w1, w2, w3)
func (c *Counter) TrigramCount(w1, w2, w3 string) int64 {
	return c.trigrams[[3]string{w1, w2, w3}]
}

// Count returns the raw count of a key of any order; zero when unseen.
func (c *Counter) Count(gram ...string) int64 {
	switch len(gram) {
	case 1:
		return c.unigrams[gram[0]]
	case 2:
		return c.bigrams[[2]string{gram[0], gram[1]}]
	case 3:
		return c.trigrams[[3]string{gram[0], gram[1], gram[2]}]
	}
	return 0
}

// Unique returns the number of distinct keys of order n
func (c *Counter) Unique(n int) int {
	switch n {
	case 1:
		return len(c.unigrams)
	case 2:
		return len(c.bigrams)
	case 3:
		return len(c.trigrams)
	}
	return 0
}
