// Package validation checks user-supplied request parameters and paths
// before they reach the search engine or the filesystem.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/JuniperSearch/core/errors"
)

// Limits on user input.
const (
	// MaxQueryRunes bounds a search query.
	MaxQueryRunes = 256
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// MaxChapter is larger than any chapter number in the canon.
	MaxChapter = 200
	// MaxVerse is larger than any verse number in the canon.
	MaxVerse = 200
)

// ValidateQuery rejects queries that are too long or not valid UTF-8.
// An empty query is valid.
func ValidateQuery(q string) error {
	if !utf8.ValidString(q) {
		return errors.NewValidation("query", "", "query must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(q); n > MaxQueryRunes {
		return errors.NewValidation("query", strconv.Itoa(n), fmt.Sprintf("query longer than %d characters", MaxQueryRunes))
	}
	return nil
}

// ParseLimit parses an optional result limit. An empty string yields def;
// values above max are clamped.
func ParseLimit(s string, def, max int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.NewValidation("limit", s, "limit must be a positive integer")
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

// ParsePositive parses a required positive integer parameter no greater
// than max.
func ParsePositive(field, s string, max int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.NewValidation(field, s, field+" is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.NewValidation(field, s, field+" must be a positive integer")
	}
	if max > 0 && n > max {
		return 0, errors.NewValidation(field, s, fmt.Sprintf("%s must be at most %d", field, max))
	}
	return n, nil
}

// ParseOptionalPositive is ParsePositive for a parameter that may be absent.
func ParseOptionalPositive(field, s string, max int) (*int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, err := ParsePositive(field, s, max)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ValidateBook rejects empty or control-character book parameters.
func ValidateBook(book string) error {
	if strings.TrimSpace(book) == "" {
		return errors.NewValidation("book", book, "book is required")
	}
	if utf8.RuneCountInString(book) > 32 {
		return errors.NewValidation("book", book, "book name too long")
	}
	if strings.IndexFunc(book, unicode.IsControl) >= 0 {
		return errors.NewValidation("book", book, "control character not allowed")
	}
	return nil
}

// ValidatePath checks a corpus path for length and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return errors.NewValidation("path", path, "path cannot be empty")
	}
	if len(path) > MaxPathLength {
		return errors.NewValidation("path", "", "path too long")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return errors.NewValidation("path", "", "control character not allowed")
		}
	}
	return nil
}
