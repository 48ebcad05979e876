// Package books holds the bidirectional book-name table of the Korean canon.
//
// Every short code maps to exactly one long name and back. Tokens that are
// neither pass through unchanged, so an unknown book is used verbatim as both
// its short and long form.
package books

// Book is one entry in the canon.
type Book struct {
	// Code is the abbreviated form used in composite keys (e.g., "창").
	Code string `json:"code"`

	// Name is the full book name (e.g., "창세기").
	Name string `json:"name"`

	// Testament is "OT" or "NT".
	Testament string `json:"testament"`
}

// canon is listed in canonical order.
var canon = []Book{
	{"창", "창세기", "OT"}, {"출", "출애굽기", "OT"}, {"레", "레위기", "OT"},
	{"민", "민수기", "OT"}, {"신", "신명기", "OT"}, {"수", "여호수아", "OT"},
	{"삿", "사사기", "OT"}, {"룻", "룻기", "OT"}, {"삼상", "사무엘상", "OT"},
	{"삼하", "사무엘하", "OT"}, {"왕상", "열왕기상", "OT"}, {"왕하", "열왕기하", "OT"},
	{"대상", "역대상", "OT"}, {"대하", "역대하", "OT"}, {"스", "에스라", "OT"},
	{"느", "느헤미야", "OT"}, {"에", "에스더", "OT"}, {"욥", "욥기", "OT"},
	{"시", "시편", "OT"}, {"잠", "잠언", "OT"}, {"전", "전도서", "OT"},
	{"아", "아가", "OT"}, {"사", "이사야", "OT"}, {"렘", "예레미야", "OT"},
	{"애", "예레미야애가", "OT"}, {"겔", "에스겔", "OT"}, {"단", "다니엘", "OT"},
	{"호", "호세아", "OT"}, {"욜", "요엘", "OT"}, {"암", "아모스", "OT"},
	{"옵", "오바댜", "OT"}, {"욘", "요나", "OT"}, {"미", "미가", "OT"},
	{"나", "나훔", "OT"}, {"합", "하박국", "OT"}, {"습", "스바냐", "OT"},
	{"학", "학개", "OT"}, {"슥", "스가랴", "OT"}, {"말", "말라기", "OT"},

	{"마", "마태복음", "NT"}, {"막", "마가복음", "NT"}, {"누", "누가복음", "NT"},
	{"요", "요한복음", "NT"}, {"행", "사도행전", "NT"}, {"롬", "로마서", "NT"},
	{"고전", "고린도전서", "NT"}, {"고후", "고린도후서", "NT"}, {"갈", "갈라디아서", "NT"},
	{"엡", "에베소서", "NT"}, {"빌", "빌립보서", "NT"}, {"골", "골로새서", "NT"},
	{"살전", "데살로니가전서", "NT"}, {"살후", "데살로니가후서", "NT"}, {"딤전", "디모데전서", "NT"},
	{"딤후", "디모데후서", "NT"}, {"딛", "디도서", "NT"}, {"몬", "빌레몬서", "NT"},
	{"히", "히브리서", "NT"}, {"약", "야고보서", "NT"}, {"벧전", "베드로전서", "NT"},
	{"벧후", "베드로후서", "NT"}, {"요일", "요한일서", "NT"}, {"요이", "요한이서", "NT"},
	{"요삼", "요한삼서", "NT"}, {"유", "유다서", "NT"}, {"계", "요한계시록", "NT"},
}

var (
	byCode = make(map[string]int, len(canon))
	byName = make(map[string]int, len(canon))
)

func init() {
	for i, b := range canon {
		byCode[b.Code] = i
		byName[b.Name] = i
	}
}

// ShortOf returns the short code for a long name. A token that is already a
// short code, or is unknown, is returned unchanged.
func ShortOf(token string) string {
	if i, ok := byName[token]; ok {
		return canon[i].Code
	}
	return token
}

// LongOf returns the long name for a short code, or the code itself if it is
// not in the table.
func LongOf(code string) string {
	if i, ok := byCode[code]; ok {
		return canon[i].Name
	}
	return code
}

// Lookup resolves either form of a book name.
func Lookup(token string) (Book, bool) {
	if i, ok := byCode[token]; ok {
		return canon[i], true
	}
	if i, ok := byName[token]; ok {
		return canon[i], true
	}
	return Book{}, false
}

// IsKnown reports whether token is a short code or long name in the table.
func IsKnown(token string) bool {
	_, ok := Lookup(token)
	return ok
}

// Index returns the canonical position of a book code, or -1.
func Index(code string) int {
	if i, ok := byCode[code]; ok {
		return i
	}
	return -1
}

// All returns the canon in order. The returned slice is a copy.
func All() []Book {
	out := make([]Book, len(canon))
	copy(out, canon)
	return out
}
