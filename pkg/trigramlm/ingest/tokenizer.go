package ingest

import (
	"strings"
	"unicode"
)

// Token is a surface form and the tag the tokenizer assigned to it
type Token struct {
	Text string
	Tag  string
}

// Tokenizer turns raw sentence text into ordered tokens
type Tokenizer interface {
	Tokenize(text string) []Token
}

// Tags assigned by ScriptTokenizer
const (
	TagHangul      = "Hangul"
	TagHan         = "Han"
	TagKana        = "Kana"
	TagAlpha       = "Alpha"
	TagNumber      = "Number"
	TagPunctuation = "Punctuation"
	TagForeign     = "Foreign"
)

// ScriptTokenizer splits text on whitespace and on every change of character
// class, so "영화가good!!" becomes 영화가/Hangul good/Alpha !!/Punctuation.
type ScriptTokenizer struct{}

// NewScriptTokenizer creates a script-class tokenizer
func NewScriptTokenizer() *ScriptTokenizer {
	return &ScriptTokenizer{}
}

// Tokenize implements Tokenizer
func (t *ScriptTokenizer) Tokenize(text string) []Token {
	var tokens []Token
	var current strings.Builder
	currentTag := ""

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, Token{Text: current.String(), Tag: currentTag})
			current.Reset()
		}
		currentTag = ""
	}

	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			flush()
			continue
		}
		tag := classify(r)
		if tag != currentTag {
			flush()
			currentTag = tag
		}
		current.WriteRune(r)
	}
	flush()

	return tokens
}

func classify(r rune) string {
	switch {
	case unicode.Is(unicode.Hangul, r):
		return TagHangul
	case unicode.Is(unicode.Han, r):
		return TagHan
	case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
		return TagKana
	case unicode.IsLetter(r) || unicode.IsMark(r):
		return TagAlpha
	case unicode.IsNumber(r):
		return TagNumber
	case unicode.IsPunct(r) || unicode.IsSymbol(r):
		return TagPunctuation
	}
	return TagForeign
}

// WhitespaceTokenizer splits on whitespace and leaves tags empty
type WhitespaceTokenizer struct{}

// Tokenize implements Tokenizer
func (WhitespaceTokenizer) Tokenize(text string) []Token {
	fields := strings.Fields(text)
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Token{Text: f}
	}
	return tokens
}

// TaggedTokenizer reads text that is already tagged as whitespace separated
// "token/TAG" pairs. The split happens at the first slash; a field without
// one becomes an untagged token.
type TaggedTokenizer struct{}

// Tokenize implements Tokenizer
func (TaggedTokenizer) Tokenize(text string) []Token {
	fields := strings.Fields(text)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		word, tag, _ := strings.Cut(f, "/")
		if word == "" {
			continue
		}
		tokens = append(tokens, Token{Text: word, Tag: tag})
	}
	return tokens
}

// Texts drops the tags
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}
