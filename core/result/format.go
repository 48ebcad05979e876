package result

import (
	"fmt"
	"strings"
)

// Subtitles and mod labels shown by the front end.
const (
	subtitleBlock   = "Enter: 전체 | Cmd: 본문만 | Opt: 주소+본문"
	subtitleMatch   = "Enter: 복사"
	labelTextOnly   = "본문만 복사"
	labelWithRef    = "주소와 함께 복사"
	labelRefOnly    = "주소만 복사"
	titleNoKeyword  = "검색어를 입력하세요"
	titleNoResults  = "검색 결과 없음"
	titleNoPassage  = "구절을 찾을 수 없음"
	subtitleNoQuery = "2글자 이상 입력"
)

// Line is one resolved verse of a block.
type Line struct {
	Verse int    `json:"verse"`
	Text  string `json:"text"`
}

// Block is the resolved text of one chapter of an address.
type Block struct {
	// BookName is the long name used in every rendered reference.
	BookName string

	// Chapter is the chapter number.
	Chapter int

	// VerseSpec is the verse spec as typed ("1-5,7"); empty for a whole chapter.
	VerseSpec string

	// Lines are the verses found, in display order. Never empty for a block
	// that is rendered.
	Lines []Line
}

// WholeChapter reports whether the block was requested without a verse spec.
func (b Block) WholeChapter() bool {
	return b.VerseSpec == ""
}

func (b Block) reference(verse int) string {
	return fmt.Sprintf("%s %d:%d", b.BookName, b.Chapter, verse)
}

// DefaultText prefixes each verse with its number.
func (b Block) DefaultText() string {
	lines := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = fmt.Sprintf("%d. %s", l.Verse, l.Text)
	}
	return strings.Join(lines, "\n")
}

// CleanText is the verse text only.
func (b Block) CleanText() string {
	lines := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = l.Text
	}
	return strings.Join(lines, "\n")
}

// ReferenceText prefixes each verse with its full reference.
func (b Block) ReferenceText() string {
	lines := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = b.reference(l.Verse) + " - " + l.Text
	}
	return strings.Join(lines, "\n")
}

// Title is the heading of the block item.
func (b Block) Title() string {
	if b.WholeChapter() {
		return fmt.Sprintf("%s %d장 (%d절)", b.BookName, b.Chapter, len(b.Lines))
	}
	return fmt.Sprintf("%s %d:%s", b.BookName, b.Chapter, b.VerseSpec)
}

// PureRef is the reference without text.
func (b Block) PureRef() string {
	if b.WholeChapter() {
		return fmt.Sprintf("%s %d장", b.BookName, b.Chapter)
	}
	return b.Title()
}

// Footer describes the span of verses found.
func (b Block) Footer() string {
	first := b.Lines[0].Verse
	last := b.Lines[len(b.Lines)-1].Verse
	if !b.WholeChapter() && len(b.Lines) == 1 {
		return fmt.Sprintf("%s %d장 %d절", b.BookName, b.Chapter, first)
	}
	return fmt.Sprintf("%s %d장 %d-%d절", b.BookName, b.Chapter, first, last)
}

// BlockItems renders a block as one summary item followed by one item per
// verse. A block without lines renders nothing.
func BlockItems(b Block) []Item {
	if len(b.Lines) == 0 {
		return nil
	}

	body := b.DefaultText()
	items := make([]Item, 0, len(b.Lines)+1)
	items = append(items, Item{
		Title:    b.Title(),
		Subtitle: subtitleBlock,
		Arg:      body,
		Valid:    true,
		Mods: &Mods{
			Cmd: cmdMod(b.CleanText(), labelTextOnly),
			Alt: altMod(b.ReferenceText(), labelWithRef),
		},
		PureRef:    b.PureRef(),
		FullBody:   body,
		FooterText: b.Footer(),
		Icon:       IconAddress,
	})

	for _, l := range b.Lines {
		single := Block{BookName: b.BookName, Chapter: b.Chapter, VerseSpec: b.VerseSpec, Lines: []Line{l}}
		items = append(items, Item{
			Title:    fmt.Sprintf("%d절", l.Verse),
			Subtitle: l.Text,
			Arg:      single.DefaultText(),
			Valid:    true,
			Mods: &Mods{
				Cmd: cmdMod(single.CleanText(), labelTextOnly),
				Alt: altMod(single.ReferenceText(), labelWithRef),
			},
		})
	}
	return items
}

// Match renders one keyword hit.
func Match(bookName string, chapter, verse int, text string) Item {
	ref := fmt.Sprintf("%s %d:%d", bookName, chapter, verse)
	return Item{
		Title:    ref + " : " + text,
		Subtitle: subtitleMatch,
		Arg:      ref + " - " + text,
		Valid:    true,
		Mods: &Mods{
			Cmd: cmdMod(text, labelTextOnly),
			Alt: altMod(ref, labelRefOnly),
		},
		Icon: IconSearch,
	}
}

// Placeholder is a non-actionable item explaining an empty result.
func Placeholder(title, subtitle string) Item {
	return Item{Title: title, Subtitle: subtitle, Valid: false}
}

// EmptyKeyword is returned for a scoped query without a keyword.
func EmptyKeyword(bookName string) Item {
	return Placeholder(titleNoKeyword, bookName+"에서 검색할 단어 입력")
}

// EmptyQuery is returned for a blank query.
func EmptyQuery() Item {
	return Placeholder(titleNoKeyword, subtitleNoQuery)
}

// NoBookMatches is returned when a scoped search finds nothing.
func NoBookMatches(bookName, keyword string) Item {
	return Placeholder(titleNoResults, fmt.Sprintf("%s에서 '%s'를 찾을 수 없습니다.", bookName, keyword))
}

// NoMatches is returned when a global search finds nothing.
func NoMatches(query string) Item {
	return Placeholder(titleNoResults, fmt.Sprintf("'%s'에 대한 결과를 찾을 수 없습니다.", query))
}

// PassageNotFound is returned when the query was address-shaped but none of
// its references resolved and no keyword match exists either.
func PassageNotFound(refs []string) Item {
	return Placeholder(titleNoPassage, fmt.Sprintf("'%s'에 해당하는 구절이 없습니다.", strings.Join(refs, ", ")))
}
