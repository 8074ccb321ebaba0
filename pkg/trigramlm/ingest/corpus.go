package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
)

// CorpusOptions controls how tab-separated corpus rows are read
type CorpusOptions struct {
	TextColumn int  // zero-based column holding the sentence text
	SkipHeader bool // drop the first row
}

// DefaultCorpusOptions reads the second column and skips a header row, the
// layout of id<TAB>document<TAB>label review corpora.
func DefaultCorpusOptions() CorpusOptions {
	return CorpusOptions{TextColumn: 1, SkipHeader: true}
}

// ReadCorpus returns the text field of every row. Blank lines are ignored;
// a row without the text column fails the read.
func ReadCorpus(r io.Reader, opts CorpusOptions) ([]string, error) {
	if opts.TextColumn < 0 {
		return nil, fmt.Errorf("text column %d: %w", opts.TextColumn, internalerr.ErrInvalidConfig)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var texts []string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 && opts.SkipHeader {
			continue
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) <= opts.TextColumn {
			return nil, fmt.Errorf("line %d has %d fields, text column is %d: %w",
				lineNo, len(fields), opts.TextColumn, internalerr.ErrInvalidInput)
		}
		texts = append(texts, fields[opts.TextColumn])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

// ReadSentences reads one tokenized sentence per line. Empty lines are kept
// as empty sentences so line numbers and sentence indexes agree.
func ReadSentences(r io.Reader) ([][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var sentences [][]string
	for scanner.Scan() {
		sentences = append(sentences, strings.Fields(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sentences, nil
}
