package ref

import (
	"strings"
	"unicode/utf8"
)

// Scoped is a keyword search restricted to one book, typed as "<book>:<keyword>".
type Scoped struct {
	Book    string `json:"book"`
	Keyword string `json:"keyword"`
}

// ParseScoped splits a trimmed query at its first ':'. The left side must be
// a run of Hangul syllables; the keyword is trimmed and may be empty.
func ParseScoped(query string) (Scoped, bool) {
	left, right, ok := strings.Cut(strings.TrimSpace(query), ":")
	if !ok {
		return Scoped{}, false
	}
	book := strings.TrimSpace(left)
	if !isSyllables(book) {
		return Scoped{}, false
	}
	return Scoped{Book: book, Keyword: strings.TrimSpace(right)}, true
}

// isSyllables reports whether s is non-empty and made only of precomposed
// Hangul syllables (U+AC00..U+D7A3).
func isSyllables(s string) bool {
	if s == "" {
		return false
	}
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r < 0xAC00 || r > 0xD7A3 {
			return false
		}
		s = s[size:]
	}
	return true
}
