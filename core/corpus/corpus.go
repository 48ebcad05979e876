// Package corpus holds the immutable scripture text store.
//
// A Corpus is built once through a Builder and never mutated afterwards, so
// any number of goroutines may read it without locking. The canonical layout
// is nested (book, chapter, verse) with insertion order kept at every level;
// a flat slice of all verses in insertion order backs whole-corpus scans.
package corpus

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/JuniperSearch/core/errors"
)

// Verse is one addressed unit of text.
type Verse struct {
	Key
	Text string `json:"text"`
}

// Corpus is a read-only Book -> Chapter -> Verse -> Text store.
// The zero value and a nil *Corpus are both valid and empty.
type Corpus struct {
	verses      []Verse
	index       map[Key]int
	books       []*Book
	byCode      map[string]*Book
	fingerprint string
}

// Book is the per-book view of a corpus.
type Book struct {
	Code     string
	chapters []*Chapter
	byNum    map[int]*Chapter
	seq      []int // positions in corpus.verses, insertion order
	c        *Corpus
}

// Chapter is the per-chapter view of a corpus.
type Chapter struct {
	Book   string
	Number int
	seq    []int
	c      *Corpus
}

// Stats summarizes corpus size.
type Stats struct {
	Books    int `json:"books"`
	Chapters int `json:"chapters"`
	Verses   int `json:"verses"`
}

// Empty returns a corpus with no verses.
func Empty() *Corpus {
	return NewBuilder().Build()
}

// Len returns the number of verses.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.verses)
}

// IsEmpty reports whether the corpus holds no verses.
func (c *Corpus) IsEmpty() bool {
	return c.Len() == 0
}

// Lookup returns the text stored under k.
func (c *Corpus) Lookup(k Key) (string, bool) {
	if c == nil {
		return "", false
	}
	i, ok := c.index[k]
	if !ok {
		return "", false
	}
	return c.verses[i].Text, true
}

// Each calls fn for every verse in corpus order until fn returns false.
func (c *Corpus) Each(fn func(Verse) bool) {
	if c == nil {
		return
	}
	for _, v := range c.verses {
		if !fn(v) {
			return
		}
	}
}

// EachComposite is the flat-key view of Each.
func (c *Corpus) EachComposite(fn func(key, text string) bool) {
	c.Each(func(v Verse) bool {
		return fn(v.Key.String(), v.Text)
	})
}

// Books returns book codes in corpus order.
func (c *Corpus) Books() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.books))
	for i, b := range c.books {
		out[i] = b.Code
	}
	return out
}

// Book returns the view of a single book.
func (c *Corpus) Book(code string) (*Book, bool) {
	if c == nil {
		return nil, false
	}
	b, ok := c.byCode[code]
	return b, ok
}

// Chapter returns the view of a single chapter.
func (c *Corpus) Chapter(code string, number int) (*Chapter, bool) {
	b, ok := c.Book(code)
	if !ok {
		return nil, false
	}
	return b.Chapter(number)
}

// Fingerprint returns the hex BLAKE3 digest of the ordered key/text stream.
func (c *Corpus) Fingerprint() string {
	if c == nil {
		return Empty().fingerprint
	}
	return c.fingerprint
}

// Stats returns corpus size counters.
func (c *Corpus) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	s := Stats{Books: len(c.books), Verses: len(c.verses)}
	for _, b := range c.books {
		s.Chapters += len(b.chapters)
	}
	return s
}

// Chapters returns the chapter numbers of the book in corpus order.
func (b *Book) Chapters() []int {
	out := make([]int, len(b.chapters))
	for i, ch := range b.chapters {
		out[i] = ch.Number
	}
	return out
}

// Chapter returns one chapter of the book.
func (b *Book) Chapter(number int) (*Chapter, bool) {
	ch, ok := b.byNum[number]
	return ch, ok
}

// Each calls fn for every verse of the book in corpus order until fn returns false.
func (b *Book) Each(fn func(Verse) bool) {
	for _, i := range b.seq {
		if !fn(b.c.verses[i]) {
			return
		}
	}
}

// Len returns the number of verses in the book.
func (b *Book) Len() int {
	return len(b.seq)
}

// Verses returns the verses of the chapter in corpus order.
func (ch *Chapter) Verses() []Verse {
	out := make([]Verse, len(ch.seq))
	for i, idx := range ch.seq {
		out[i] = ch.c.verses[idx]
	}
	return out
}

// Len returns the number of verses in the chapter.
func (ch *Chapter) Len() int {
	return len(ch.seq)
}

// Builder accumulates verses for a single Corpus.
type Builder struct {
	c *Corpus
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{c: &Corpus{
		index:  make(map[Key]int),
		byCode: make(map[string]*Book),
	}}
}

// Add stores text under k. The book code and text are composed to NFC. A
// repeated key keeps its first position and takes the latest text.
func (b *Builder) Add(k Key, text string) error {
	if b.c == nil {
		return errors.NewValidation("builder", k.String(), "corpus builder already built")
	}
	k.Book = norm.NFC.String(k.Book)
	text = norm.NFC.String(text)
	if !k.Valid() {
		return errors.NewValidation("key", k.String(), "book, chapter and verse are required")
	}

	c := b.c
	if i, ok := c.index[k]; ok {
		c.verses[i].Text = text
		return nil
	}

	pos := len(c.verses)
	c.verses = append(c.verses, Verse{Key: k, Text: text})
	c.index[k] = pos

	book, ok := c.byCode[k.Book]
	if !ok {
		book = &Book{Code: k.Book, byNum: make(map[int]*Chapter), c: c}
		c.byCode[k.Book] = book
		c.books = append(c.books, book)
	}
	book.seq = append(book.seq, pos)

	ch, ok := book.byNum[k.Chapter]
	if !ok {
		ch = &Chapter{Book: k.Book, Number: k.Chapter, c: c}
		book.byNum[k.Chapter] = ch
		book.chapters = append(book.chapters, ch)
	}
	ch.seq = append(ch.seq, pos)
	return nil
}

// AddComposite stores text under a composite key such as "창1:1".
func (b *Builder) AddComposite(key, text string) error {
	k, err := ParseKey(key)
	if err != nil {
		return err
	}
	return b.Add(k, text)
}

// Len returns the number of distinct verses added so far.
func (b *Builder) Len() int {
	if b.c == nil {
		return 0
	}
	return len(b.c.verses)
}

// Build seals the corpus. The builder must not be used afterwards.
func (b *Builder) Build() *Corpus {
	c := b.c
	if c == nil {
		return Empty()
	}
	b.c = nil

	h := blake3.New()
	for _, v := range c.verses {
		h.Write([]byte(v.Key.String()))
		h.Write([]byte{0})
		h.Write([]byte(v.Text))
		h.Write([]byte{'\n'})
	}
	c.fingerprint = hex.EncodeToString(h.Sum(nil))
	return c
}
