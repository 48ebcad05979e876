package search

import (
	"github.com/FocuswithJustin/JuniperSearch/core/books"
	"github.com/FocuswithJustin/JuniperSearch/core/corpus"
	"github.com/FocuswithJustin/JuniperSearch/core/ref"
	"github.com/FocuswithJustin/JuniperSearch/core/result"
)

// resolveAddress turns one parsed address into its blocks, one per chapter,
// in chapter list order. Chapters that resolve to no verses yield no block.
func resolveAddress(c *corpus.Corpus, addr ref.Address) []result.Block {
	code := books.ShortOf(addr.Book)
	name := books.LongOf(code)

	var verses []ref.Number
	if !addr.WholeChapter() {
		verses = addr.Verses.Expand()
	}

	var blocks []result.Block
	for _, ch := range addr.Chapters.Expand() {
		if !ch.Valid() {
			continue
		}

		var lines []result.Line
		if addr.WholeChapter() {
			lines = probeChapter(c, code, ch.Value)
		} else {
			lines = lookupVerses(c, code, ch.Value, verses)
		}
		if len(lines) == 0 {
			continue
		}

		b := result.Block{BookName: name, Chapter: ch.Value, Lines: lines}
		if !addr.WholeChapter() {
			b.VerseSpec = addr.Verses.String()
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// probeChapter resolves a whole chapter by reading verse 1, 2, ... until the
// first verse number with no text.
func probeChapter(c *corpus.Corpus, code string, chapter int) []result.Line {
	var lines []result.Line
	for v := 1; ; v++ {
		text, ok := c.Lookup(corpus.Key{Book: code, Chapter: chapter, Verse: v})
		if !ok {
			return lines
		}
		lines = append(lines, result.Line{Verse: v, Text: text})
	}
}

// lookupVerses resolves the listed verses in order; missing and unconverted
// numbers are skipped.
func lookupVerses(c *corpus.Corpus, code string, chapter int, verses []ref.Number) []result.Line {
	var lines []result.Line
	for _, n := range verses {
		if !n.Valid() {
			continue
		}
		if text, ok := c.Lookup(corpus.Key{Book: code, Chapter: chapter, Verse: n.Value}); ok {
			lines = append(lines, result.Line{Verse: n.Value, Text: text})
		}
	}
	return lines
}
