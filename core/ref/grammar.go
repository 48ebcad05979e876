// Package ref parses free-text scripture queries.
//
// Three query shapes are recognised, tried in order by the search engine:
//
//   - Address: "출 3:1", "창 1장", "요 3:16-18,20", "창1-2", several per query
//   - Scoped keyword: "출:사랑" (keyword search inside one book)
//   - Global keyword: anything else
//
// Address recognition uses a participle grammar with these productions:
//
//	Address     = Book ChapterSpec ( Sep* VerseSpec )?
//	Sep         = ":" | "장"
//	ChapterSpec = List
//	VerseSpec   = List
//	List        = Range ( "," Range )*
//	Range       = Int ( ( "-" | "~" ) Int )?
package ref

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/unicode/norm"
)

// verseSuffix is dropped from the query before address parsing ("3절" -> "3").
const verseSuffix = "절"

// addressNode is the participle grammar for a single address.
//
//nolint:govet // participle grammar tags are not standard struct tags
type addressNode struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Book     string    `@Book`
	Chapters *listNode `@@`
	Verses   *listNode `( ( ":" | "장" )* @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type listNode struct {
	Ranges []*rangeNode `@@ ( "," @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type rangeNode struct {
	Start string `@Int`
	Op    string `( @( "-" | "~" )`
	End   string `  @Int )?`
}

// addressLexer tokenizes the whole query. Other catches everything the
// grammar does not use so that lexing never fails.
var addressLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Book", Pattern: `[가-힣]+`},
	{Name: "Punct", Pattern: `[:,~\-]`},
	{Name: "Whitespace", Pattern: `[\s\p{Zs}]+`},
	{Name: "Other", Pattern: `.`},
})

var addressParser = participle.MustBuild[addressNode](
	participle.Lexer(addressLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(64),
)

var bookToken = addressLexer.Symbols()["Book"]

// Span is a half-open byte range into the normalized query.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Address is one book/chapter/verse reference found in a query.
type Address struct {
	// Book is the book token as typed; it may be a short code, a long name,
	// or an unknown word.
	Book string `json:"book"`

	// Chapters is the chapter spec. It is never empty.
	Chapters List `json:"chapters"`

	// Verses is the verse spec. Nil means the whole chapter.
	Verses List `json:"verses,omitempty"`

	// Span locates the address in the normalized query.
	Span Span `json:"span"`
}

// WholeChapter reports whether the address carries no verse spec.
func (a Address) WholeChapter() bool {
	return len(a.Verses) == 0
}

// String renders the address back in canonical typed form, e.g. "출 3:1-5".
func (a Address) String() string {
	var sb strings.Builder
	sb.WriteString(a.Book)
	sb.WriteByte(' ')
	sb.WriteString(a.Chapters.String())
	if !a.WholeChapter() {
		sb.WriteByte(':')
		sb.WriteString(a.Verses.String())
	}
	return sb.String()
}

// Normalize prepares a query for address parsing. The query is composed to
// NFC and trimmed, then every "절" is removed.
func Normalize(query string) string {
	return strings.ReplaceAll(strings.TrimSpace(norm.NFC.String(query)), verseSuffix, "")
}

// FindAddresses returns every non-overlapping address in query, left to
// right. The query should already be normalized.
func FindAddresses(query string) []Address {
	lex, err := addressLexer.LexString("", query)
	if err != nil {
		return nil
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil
	}

	var found []Address
	cursor := 0
	for _, tok := range tokens {
		if tok.Type != bookToken || tok.Pos.Offset < cursor {
			continue
		}

		start := tok.Pos.Offset
		node, err := addressParser.ParseString("", query[start:], participle.AllowTrailing(true))
		if err != nil {
			continue
		}

		end := start + node.EndPos.Offset
		if minEnd := start + len(tok.Value); end < minEnd {
			end = minEnd
		}
		cursor = end

		found = append(found, Address{
			Book:     node.Book,
			Chapters: node.Chapters.list(),
			Verses:   node.Verses.list(),
			Span:     Span{Start: start, End: end},
		})
	}
	return found
}

// ParseAddress parses query as exactly one address. It reports false when the
// query holds no address or more than one.
func ParseAddress(query string) (Address, bool) {
	found := FindAddresses(Normalize(query))
	if len(found) != 1 {
		return Address{}, false
	}
	return found[0], true
}

func (n *listNode) list() List {
	if n == nil || len(n.Ranges) == 0 {
		return nil
	}
	out := make(List, len(n.Ranges))
	for i, r := range n.Ranges {
		out[i] = Range{Start: r.Start, Op: r.Op, End: r.End}
	}
	return out
}
