package corpus

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/JuniperSearch/core/errors"
)

// Key addresses a single verse.
type Key struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

// String encodes the key in composite form, e.g. "창1:1".
func (k Key) String() string {
	var sb strings.Builder
	sb.Grow(len(k.Book) + 8)
	sb.WriteString(k.Book)
	sb.WriteString(strconv.Itoa(k.Chapter))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(k.Verse))
	return sb.String()
}

// Valid reports whether the key can address a verse.
func (k Key) Valid() bool {
	return k.Book != "" && k.Chapter > 0 && k.Verse > 0
}

// ParseKey decodes a composite key. The book is everything before the first
// digit, the chapter runs up to ':' and the verse is the remainder.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	split := strings.IndexFunc(s, unicode.IsDigit)
	if split <= 0 {
		return Key{}, errors.NewParse("key", "", "missing book or chapter in "+strconv.Quote(s))
	}

	book := strings.TrimSpace(s[:split])
	chapterStr, verseStr, ok := strings.Cut(s[split:], ":")
	if !ok || book == "" {
		return Key{}, errors.NewParse("key", "", "missing ':' separator in "+strconv.Quote(s))
	}

	chapter, err := strconv.Atoi(chapterStr)
	if err != nil || chapter < 1 {
		return Key{}, errors.NewParse("key", "", "bad chapter in "+strconv.Quote(s))
	}
	verse, err := strconv.Atoi(verseStr)
	if err != nil || verse < 1 {
		return Key{}, errors.NewParse("key", "", "bad verse in "+strconv.Quote(s))
	}

	return Key{Book: book, Chapter: chapter, Verse: verse}, nil
}
