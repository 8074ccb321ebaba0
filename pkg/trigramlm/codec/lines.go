package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
)

// WriteScores writes one score per line in input order
func WriteScores(w io.Writer, scores []float64) error {
	bw := bufio.NewWriter(w)
	for _, s := range scores {
		bw.WriteString(FormatFloat(s))
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadScores parses a file written by WriteScores
func ReadScores(r io.Reader) ([]float64, error) {
	scanner := bufio.NewScanner(r)
	var scores []float64
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse score %q: %w", lineNo, line, internalerr.ErrInvalidInput)
		}
		scores = append(scores, v)
	}
	return scores, scanner.Err()
}

// WriteSentences writes each token sequence space-joined on its own line
func WriteSentences(w io.Writer, sentences [][]string) error {
	bw := bufio.NewWriter(w)
	for _, s := range sentences {
		bw.WriteString(strings.Join(s, " "))
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
