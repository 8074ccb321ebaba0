package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
)

// Order tags that open every line of the text model format
const (
	TagUnigram = "UNIGRAM"
	TagBigram  = "BIGRAM"
	TagTrigram = "TRIGRAM"
)

var tags = [...]string{1: TagUnigram, 2: TagBigram, 3: TagTrigram}

func orderOf(tag string) int {
	for n, t := range tags {
		if t != "" && t == tag {
			return n
		}
	}
	return 0
}

// WriteModel writes the three tables, one entry per line, unigrams first and
// each table sorted by key. Probabilities use the shortest decimal that
// parses back to the same float64.
func WriteModel(w io.Writer, m *ngram.Model) error {
	bw := bufio.NewWriter(w)
	for _, e := range m.AllEntries() {
		for _, tok := range e.Gram {
			if err := checkToken(tok); err != nil {
				return err
			}
		}
		bw.WriteString(tags[len(e.Gram)])
		for _, tok := range e.Gram {
			bw.WriteByte(' ')
			bw.WriteString(tok)
		}
		bw.WriteByte(' ')
		bw.WriteString(FormatFloat(e.LogProb))
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func checkToken(tok string) error {
	if tok == "" || strings.IndexFunc(tok, unicode.IsSpace) >= 0 {
		return fmt.Errorf("token %q cannot be written as a field: %w", tok, internalerr.ErrInvalidInput)
	}
	return nil
}

// FormatFloat renders v in the shortest form that round-trips exactly
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadModel parses the text model format. Loading is all-or-nothing: the
// first malformed line fails the whole read.
func ReadModel(r io.Reader) (*ngram.Model, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var entries []ngram.Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e, err := parseModelLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ngram.FromEntries(entries, ngram.Meta{})
}

func parseModelLine(line string) (ngram.Entry, error) {
	fields := strings.Fields(line)
	order := orderOf(fields[0])
	if order == 0 {
		return ngram.Entry{}, fmt.Errorf("unknown order tag %q: %w", fields[0], internalerr.ErrInvalidInput)
	}
	if len(fields) != order+2 {
		return ngram.Entry{}, fmt.Errorf("%s line has %d fields, want %d: %w", fields[0], len(fields), order+2, internalerr.ErrInvalidInput)
	}

	lp, err := strconv.ParseFloat(fields[order+1], 64)
	if err != nil {
		return ngram.Entry{}, fmt.Errorf("parse log prob %q: %w", fields[order+1], internalerr.ErrInvalidInput)
	}
	if err := ngram.CheckLogProb(lp); err != nil {
		return ngram.Entry{}, err
	}

	return ngram.Entry{Gram: fields[1 : order+1], LogProb: lp}, nil
}
