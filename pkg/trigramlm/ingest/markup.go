package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup removes HTML tags and decodes entities, keeping text content.
// Tags are replaced by a space so "a<br>b" yields two words. Text inside
// script and style elements is dropped.
func StripMarkup(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}

	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawText(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func isRawText(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}
