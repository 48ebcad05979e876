// Package zefania reads Zefania XML corpora:
//
//	<XMLBIBLE>
//	  <BIBLEBOOK bnumber="1" bname="창세기" bsname="창">
//	    <CHAPTER cnumber="1">
//	      <VERS vnumber="1">태초에 ...</VERS>
//
// Books are identified by bnumber (1-66, canonical order) or, failing that,
// by bsname or bname. NOTE elements inside a verse are dropped.
package zefania

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/JuniperSearch/core/books"
	"github.com/FocuswithJustin/JuniperSearch/core/corpus"
	"github.com/FocuswithJustin/JuniperSearch/core/errors"
	"github.com/FocuswithJustin/JuniperSearch/internal/formats"
)

// Name is the registered format name.
const Name = "zefania"

var (
	chapterExpr = xpath.MustCompile("CHAPTER")
	verseExpr   = xpath.MustCompile("VERS")
)

// Handler implements formats.Handler and formats.Decoder.
type Handler struct{}

func init() {
	formats.Register(&Handler{})
}

// Name implements formats.Handler.
func (h *Handler) Name() string { return Name }

// Extensions implements formats.Handler.
func (h *Handler) Extensions() []string { return []string{".xml"} }

// Load implements formats.Handler.
func (h *Handler) Load(path string) (*corpus.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	c, err := h.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode implements formats.Decoder. Books are streamed one at a time.
func (h *Handler) Decode(r io.Reader) (*corpus.Corpus, error) {
	p, err := xmlquery.CreateStreamParser(r, "/XMLBIBLE/BIBLEBOOK")
	if err != nil {
		return nil, errors.NewParse(Name, "", err.Error())
	}

	b := corpus.NewBuilder()
	seen := 0
	for {
		book, err := p.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParse(Name, "", err.Error())
		}
		seen++
		if err := decodeBook(b, book); err != nil {
			return nil, err
		}
	}
	if seen == 0 {
		return nil, errors.NewParse(Name, "", "no BIBLEBOOK elements under XMLBIBLE")
	}
	return b.Build(), nil
}

func decodeBook(b *corpus.Builder, book *xmlquery.Node) error {
	code := bookCode(book)
	if code == "" {
		return errors.NewParse(Name, "BIBLEBOOK", "book has no bnumber, bsname or bname")
	}

	for _, ch := range xmlquery.QuerySelectorAll(book, chapterExpr) {
		chapter, err := strconv.Atoi(strings.TrimSpace(ch.SelectAttr("cnumber")))
		if err != nil {
			return errors.NewParse(Name, code, fmt.Sprintf("bad cnumber %q", ch.SelectAttr("cnumber")))
		}
		for _, v := range xmlquery.QuerySelectorAll(ch, verseExpr) {
			verse, err := strconv.Atoi(strings.TrimSpace(v.SelectAttr("vnumber")))
			if err != nil {
				return errors.NewParse(Name, fmt.Sprintf("%s%d", code, chapter), fmt.Sprintf("bad vnumber %q", v.SelectAttr("vnumber")))
			}
			if err := b.Add(corpus.Key{Book: code, Chapter: chapter, Verse: verse}, verseText(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

func bookCode(book *xmlquery.Node) string {
	if n, err := strconv.Atoi(strings.TrimSpace(book.SelectAttr("bnumber"))); err == nil {
		all := books.All()
		if n >= 1 && n <= len(all) {
			return all[n-1].Code
		}
	}
	for _, attr := range []string{"bsname", "bname"} {
		if name := strings.TrimSpace(book.SelectAttr(attr)); name != "" {
			if books.IsKnown(name) || attr == "bname" {
				return books.ShortOf(name)
			}
		}
	}
	return ""
}

// verseText joins the text of v, skipping NOTE subtrees and collapsing
// whitespace.
func verseText(v *xmlquery.Node) string {
	var sb strings.Builder
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case xmlquery.TextNode, xmlquery.CharDataNode:
				sb.WriteString(c.Data)
			case xmlquery.ElementNode:
				if strings.EqualFold(c.Data, "NOTE") {
					continue
				}
				if strings.EqualFold(c.Data, "BR") {
					sb.WriteByte(' ')
				}
				walk(c)
			}
		}
	}
	walk(v)
	return strings.Join(strings.Fields(sb.String()), " ")
}
