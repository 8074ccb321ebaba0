package ngram

import "fmt"

// Reserved sentence boundary tokens. A sentence handed to the counter must
// not contain them.
const (
	Start = "*"
	Stop  = "STOP"
)

// Reserved reports whether tok is a sentence boundary token
func Reserved(tok string) bool {
	return tok == Start || tok == Stop
}

// MaxOrder is the highest n-gram order the model estimates.
const MaxOrder = 3

// ValidOrder reports whether n is an order the model keeps a table for.
func ValidOrder(n int) bool {
	return n >= 1 && n <= MaxOrder
}

// Pad returns tokens with n-1 start sentinels prepended and one stop
// sentinel appended. The input slice is not modified.
func Pad(tokens []string, n int) []string {
	padded := make([]string, 0, len(tokens)+n)
	for i := 0; i < n-1; i++ {
		padded = append(padded, Start)
	}
	padded = append(padded, tokens...)
	return append(padded, Stop)
}

// Windows returns every contiguous length-n window of the padded sentence.
// An empty sentence still yields windows: the all-start context followed by
// the stop sentinel. n must satisfy ValidOrder; Windows panics otherwise.
func Windows(tokens []string, n int) [][]string {
	if !ValidOrder(n) {
		panic(fmt.Sprintf("ngram: order %d out of range", n))
	}
	padded := Pad(tokens, n)
	out := make([][]string, 0, len(padded)-n+1)
	for i := 0; i+n <= len(padded); i++ {
		out = append(out, padded[i:i+n:i+n])
	}
	return out
}
