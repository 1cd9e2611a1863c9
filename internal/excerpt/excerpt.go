// Package excerpt derives short plain-text descriptions from rendered post
// HTML for summary listings.
package excerpt

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultLimit is the maximum description length in runes.
	DefaultLimit = 150
	// MinLineLength is the rune count a line must exceed to be preferred.
	MinLineLength = 50

	ellipsis = "..."
)

// Describe strips markup from content, picks the first line longer than
// MinLineLength runes (the whole text when none is) and cuts it to limit
// runes followed by an ellipsis. A non-positive limit uses DefaultLimit.
// Empty text yields an empty description.
func Describe(content string, limit int) string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	text := PlainText(content)
	line := ""
	for candidate := range strings.SplitSeq(text, "\n") {
		candidate = strings.TrimSpace(candidate)
		if utf8.RuneCountInString(candidate) > MinLineLength {
			line = candidate
			break
		}
	}
	if line == "" {
		line = strings.Join(strings.Fields(text), " ")
	}
	if line == "" {
		return ""
	}
	return truncate(line, limit) + ellipsis
}

// PlainText returns the text nodes of content with entities decoded.
// Script and style bodies are dropped.
func PlainText(content string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isRawText(name) {
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

func isRawText(name []byte) bool {
	switch atom.Lookup(name) {
	case atom.Script, atom.Style:
		return true
	}
	return false
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
