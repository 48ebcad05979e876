// Package search evaluates free-text queries against a corpus.
//
// Evaluation tries three intents in order and stops at the first one that
// produces items:
//
//  1. Address: every address found in the query is resolved; blocks are
//     returned in the order their book tokens appear.
//  2. Scoped keyword: "책:단어" searches one book.
//  3. Global keyword: the whole query is searched for in every verse.
//
// When nothing matches, a single placeholder item explains why. Evaluation
// never fails and never mutates the corpus, so one Engine serves any number
// of concurrent callers.
package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/JuniperSearch/core/books"
	"github.com/FocuswithJustin/JuniperSearch/core/corpus"
	"github.com/FocuswithJustin/JuniperSearch/core/errors"
	"github.com/FocuswithJustin/JuniperSearch/core/ref"
	"github.com/FocuswithJustin/JuniperSearch/core/result"
	"golang.org/x/text/unicode/norm"
)

// DefaultLimit caps keyword results.
const DefaultLimit = 50

// Intent names the query grammar that produced an outcome.
type Intent string

// Intents.
const (
	IntentNone    Intent = "none"
	IntentAddress Intent = "address"
	IntentScoped  Intent = "scoped"
	IntentGlobal  Intent = "global"
)

// Outcome is the result of evaluating one query.
type Outcome struct {
	Intent Intent        `json:"intent"`
	Items  []result.Item `json:"items"`
}

// Passage is the result of a direct range read.
type Passage struct {
	Book    string        `json:"book"`
	Name    string        `json:"name"`
	Chapter int           `json:"chapter"`
	Verses  []result.Line `json:"verses"`
}

// Engine evaluates queries against one corpus.
type Engine struct {
	corpus   *corpus.Corpus
	limit    int
	observer Observer
}

// Observer is called after every evaluation with the raw query, the outcome
// and the time taken.
type Observer func(query string, out Outcome, took time.Duration)

// Option configures an Engine.
type Option func(*Engine)

// WithLimit sets the keyword result cap. Values below 1 are ignored.
func WithLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithObserver installs an evaluation hook.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New returns an engine over c. A nil corpus is treated as empty.
func New(c *corpus.Corpus, opts ...Option) *Engine {
	if c == nil {
		c = corpus.Empty()
	}
	e := &Engine{corpus: c, limit: DefaultLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Corpus returns the corpus the engine reads.
func (e *Engine) Corpus() *corpus.Corpus {
	return e.corpus
}

// Limit returns the default keyword result cap.
func (e *Engine) Limit() int {
	return e.limit
}

// Search evaluates query and returns its items.
func (e *Engine) Search(query string) []result.Item {
	return e.Evaluate(query).Items
}

// Evaluate runs the intent chain with the engine's default cap.
func (e *Engine) Evaluate(query string) Outcome {
	return e.EvaluateWithLimit(query, e.limit)
}

// EvaluateWithLimit runs the intent chain with an explicit keyword cap.
// A limit below 1 falls back to the engine default.
func (e *Engine) EvaluateWithLimit(query string, limit int) Outcome {
	if limit < 1 {
		limit = e.limit
	}
	start := time.Now()
	out := e.evaluate(strings.TrimSpace(norm.NFC.String(query)), limit)
	if e.observer != nil {
		e.observer(query, out, time.Since(start))
	}
	return out
}

func (e *Engine) evaluate(query string, limit int) Outcome {
	if query == "" {
		return Outcome{Intent: IntentNone, Items: []result.Item{result.EmptyQuery()}}
	}

	addrs := ref.FindAddresses(ref.Normalize(query))
	if len(addrs) > 0 {
		if items := e.resolveAll(addrs); len(items) > 0 {
			return Outcome{Intent: IntentAddress, Items: items}
		}
	}

	if s, ok := ref.ParseScoped(query); ok {
		name := books.LongOf(books.ShortOf(s.Book))
		if s.Keyword == "" {
			return Outcome{Intent: IntentNone, Items: []result.Item{result.EmptyKeyword(name)}}
		}
		if items := e.scoped(s.Book, s.Keyword, limit); len(items) > 0 {
			return Outcome{Intent: IntentScoped, Items: items}
		}
		return Outcome{Intent: IntentNone, Items: []result.Item{result.NoBookMatches(name, s.Keyword)}}
	}

	if items := e.global(query, limit); len(items) > 0 {
		return Outcome{Intent: IntentGlobal, Items: items}
	}

	if len(addrs) > 0 {
		refs := make([]string, len(addrs))
		for i, a := range addrs {
			refs[i] = a.String()
		}
		return Outcome{Intent: IntentNone, Items: []result.Item{result.PassageNotFound(refs)}}
	}
	return Outcome{Intent: IntentNone, Items: []result.Item{result.NoMatches(query)}}
}

// ResolveAddress runs the address intent only. It returns nil when the query
// holds no address or none of its addresses resolve.
func (e *Engine) ResolveAddress(query string) []result.Item {
	addrs := ref.FindAddresses(ref.Normalize(query))
	if len(addrs) == 0 {
		return nil
	}
	return e.resolveAll(addrs)
}

func (e *Engine) resolveAll(addrs []ref.Address) []result.Item {
	var items []result.Item
	for _, a := range addrs {
		for _, b := range resolveAddress(e.corpus, a) {
			items = append(items, result.BlockItems(b)...)
		}
	}
	return items
}

// ScopedKeywordSearch returns up to the default cap of verses in book whose
// text contains keyword. The book may be a short code or a long name.
func (e *Engine) ScopedKeywordSearch(book, keyword string) []result.Item {
	return e.scoped(book, keyword, e.limit)
}

func (e *Engine) scoped(book, keyword string, limit int) []result.Item {
	if keyword == "" {
		return nil
	}
	b, ok := e.corpus.Book(books.ShortOf(book))
	if !ok {
		return nil
	}

	name := books.LongOf(b.Code)
	var items []result.Item
	b.Each(func(v corpus.Verse) bool {
		if strings.Contains(v.Text, keyword) {
			items = append(items, result.Match(name, v.Chapter, v.Verse, v.Text))
		}
		return len(items) < limit
	})
	return items
}

// GlobalKeywordSearch returns up to the default cap of verses whose text
// contains keyword, in corpus order.
func (e *Engine) GlobalKeywordSearch(keyword string) []result.Item {
	return e.global(keyword, e.limit)
}

func (e *Engine) global(keyword string, limit int) []result.Item {
	if keyword == "" {
		return nil
	}
	var items []result.Item
	e.corpus.Each(func(v corpus.Verse) bool {
		if strings.Contains(v.Text, keyword) {
			items = append(items, result.Match(books.LongOf(v.Book), v.Chapter, v.Verse, v.Text))
		}
		return len(items) < limit
	})
	return items
}

// ReadRange returns verses start..end of one chapter. A nil end reads the
// single verse start. Missing verses inside the range are skipped; a range
// with no verses at all is reported as not found.
func (e *Engine) ReadRange(book string, chapter, start int, end *int) (Passage, error) {
	last := start
	if end != nil {
		last = *end
	}
	if start < 1 {
		return Passage{}, errors.NewValidation("start", strconv.Itoa(start), "must be at least 1")
	}
	if last < start {
		return Passage{}, errors.NewValidation("end", strconv.Itoa(last), "must not be before start")
	}

	code := books.ShortOf(book)
	b, ok := e.corpus.Book(code)
	if !ok {
		return Passage{}, errors.NewNotFound("book", book)
	}
	ch, ok := b.Chapter(chapter)
	if !ok {
		return Passage{}, errors.NewNotFound("chapter", fmt.Sprintf("%s %d", code, chapter))
	}

	p := Passage{Book: code, Name: books.LongOf(code), Chapter: chapter}
	for _, v := range ch.Verses() {
		if v.Verse >= start && v.Verse <= last {
			p.Verses = append(p.Verses, result.Line{Verse: v.Verse, Text: v.Text})
		}
	}
	if len(p.Verses) == 0 {
		return Passage{}, errors.NewNotFound("verse", fmt.Sprintf("%s%d:%d-%d", code, chapter, start, last))
	}
	return p, nil
}
