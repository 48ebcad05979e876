package result

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleBlock(spec string, verses ...int) Block {
	b := Block{BookName: "출애굽기", Chapter: 3, VerseSpec: spec}
	for _, v := range verses {
		b.Lines = append(b.Lines, Line{Verse: v, Text: "본문" + string(rune('가'+v))})
	}
	return b
}

func TestBlockTexts(t *testing.T) {
	b := sampleBlock("1-2", 1, 2)

	if got, want := b.DefaultText(), "1. 본문각\n2. 본문갂"; got != want {
		t.Errorf("DefaultText() = %q, want %q", got, want)
	}
	if got, want := b.CleanText(), "본문각\n본문갂"; got != want {
		t.Errorf("CleanText() = %q, want %q", got, want)
	}
	if got, want := b.ReferenceText(), "출애굽기 3:1 - 본문각\n출애굽기 3:2 - 본문갂"; got != want {
		t.Errorf("ReferenceText() = %q, want %q", got, want)
	}
}

func TestBlockHeadings(t *testing.T) {
	tests := []struct {
		name       string
		block      Block
		wantTitle  string
		wantPure   string
		wantFooter string
	}{
		{
			name:       "whole chapter",
			block:      sampleBlock("", 1, 2, 3),
			wantTitle:  "출애굽기 3장 (3절)",
			wantPure:   "출애굽기 3장",
			wantFooter: "출애굽기 3장 1-3절",
		},
		{
			name:       "whole chapter of one verse",
			block:      sampleBlock("", 1),
			wantTitle:  "출애굽기 3장 (1절)",
			wantPure:   "출애굽기 3장",
			wantFooter: "출애굽기 3장 1-1절",
		},
		{
			name:       "single verse",
			block:      sampleBlock("4", 4),
			wantTitle:  "출애굽기 3:4",
			wantPure:   "출애굽기 3:4",
			wantFooter: "출애굽기 3장 4절",
		},
		{
			name:       "list",
			block:      sampleBlock("5,1-2", 5, 1, 2),
			wantTitle:  "출애굽기 3:5,1-2",
			wantPure:   "출애굽기 3:5,1-2",
			wantFooter: "출애굽기 3장 5-2절",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.Title(); got != tt.wantTitle {
				t.Errorf("Title() = %q, want %q", got, tt.wantTitle)
			}
			if got := tt.block.PureRef(); got != tt.wantPure {
				t.Errorf("PureRef() = %q, want %q", got, tt.wantPure)
			}
			if got := tt.block.Footer(); got != tt.wantFooter {
				t.Errorf("Footer() = %q, want %q", got, tt.wantFooter)
			}
		})
	}
}

func TestBlockItems(t *testing.T) {
	if items := BlockItems(Block{BookName: "창세기", Chapter: 1}); items != nil {
		t.Errorf("BlockItems(empty) = %v, want nil", items)
	}

	items := BlockItems(sampleBlock("1-2", 1, 2))
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}

	block := items[0]
	if block.Subtitle != "Enter: 전체 | Cmd: 본문만 | Opt: 주소+본문" {
		t.Errorf("block subtitle = %q", block.Subtitle)
	}
	if block.FullBody != block.Arg {
		t.Errorf("full_body = %q, want arg %q", block.FullBody, block.Arg)
	}
	if block.Icon != IconAddress {
		t.Errorf("icon = %+v", block.Icon)
	}
	if block.Mods.Cmd.Subtitle != "본문만 복사" || block.Mods.Alt.Subtitle != "주소와 함께 복사" {
		t.Errorf("mods = %+v / %+v", block.Mods.Cmd, block.Mods.Alt)
	}

	verse := items[2]
	if verse.Title != "2절" || verse.Subtitle != "본문갂" {
		t.Errorf("verse item = %q / %q", verse.Title, verse.Subtitle)
	}
	if verse.Mods.Alt.Arg != "출애굽기 3:2 - 본문갂" {
		t.Errorf("verse alt = %q", verse.Mods.Alt.Arg)
	}
	if verse.FooterText != "" || verse.Icon != nil {
		t.Error("verse items carry no block extras")
	}
}

func TestPlaceholderWire(t *testing.T) {
	data, err := json.Marshal(Response{Items: []Item{NoMatches("사랑")}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"items":[{"title":"검색 결과 없음","subtitle":"'사랑'에 대한 결과를 찾을 수 없습니다.","valid":false}]}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}

func TestMatchWire(t *testing.T) {
	data, err := json.Marshal(Match("요한복음", 3, 16, "하나님이"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := map[string]any{
		"title":    "요한복음 3:16 : 하나님이",
		"subtitle": "Enter: 복사",
		"arg":      "요한복음 3:16 - 하나님이",
		"valid":    true,
		"mods": map[string]any{
			"cmd": map[string]any{"valid": true, "arg": "하나님이", "subtitle": "본문만 복사"},
			"alt": map[string]any{"valid": true, "arg": "요한복음 3:16", "subtitle": "주소만 복사"},
		},
		"icon": map[string]any{"path": "Images/search.png"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wire mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		item         Item
		wantTitle    string
		wantSubtitle string
	}{
		{EmptyKeyword("출애굽기"), "검색어를 입력하세요", "출애굽기에서 검색할 단어 입력"},
		{EmptyQuery(), "검색어를 입력하세요", "2글자 이상 입력"},
		{NoBookMatches("출애굽기", "사랑"), "검색 결과 없음", "출애굽기에서 '사랑'를 찾을 수 없습니다."},
		{PassageNotFound([]string{"창 99:1", "출 80"}), "구절을 찾을 수 없음", "'창 99:1, 출 80'에 해당하는 구절이 없습니다."},
	}
	for _, tt := range tests {
		if tt.item.Valid {
			t.Errorf("%q is valid", tt.item.Title)
		}
		if tt.item.Title != tt.wantTitle || tt.item.Subtitle != tt.wantSubtitle {
			t.Errorf("placeholder = %q / %q, want %q / %q", tt.item.Title, tt.item.Subtitle, tt.wantTitle, tt.wantSubtitle)
		}
	}
}
