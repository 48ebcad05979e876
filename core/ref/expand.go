package ref

import (
	"strconv"
	"strings"
)

// MaxRangeSpan bounds a single range. A wider span is cut to its first
// MaxRangeSpan numbers; the longest chapter in the canon has 176 verses.
const MaxRangeSpan = 2000

// Range is one element of a chapter or verse list: a single number ("3") or
// an inclusive range ("1-5", "1~5").
type Range struct {
	Start string `json:"start"`
	Op    string `json:"op,omitempty"`
	End   string `json:"end,omitempty"`
}

// IsSpan reports whether the range has an end bound.
func (r Range) IsSpan() bool {
	return r.End != ""
}

// String returns the range as typed.
func (r Range) String() string {
	if !r.IsSpan() {
		return r.Start
	}
	return r.Start + r.Op + r.End
}

// List is a comma-separated sequence of ranges.
type List []Range

// String returns the list as typed, e.g. "1-5,7".
func (l List) String() string {
	parts := make([]string, len(l))
	for i, r := range l {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

// Number is one concrete chapter or verse number produced by expansion.
// When a bound could not be converted, Raw holds the token as typed and the
// number never resolves against the corpus.
type Number struct {
	Value int    `json:"value,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// Valid reports whether the number was converted.
func (n Number) Valid() bool {
	return n.Raw == ""
}

// String returns the decimal value, or the raw token for an unconverted number.
func (n Number) String() string {
	if !n.Valid() {
		return n.Raw
	}
	return strconv.Itoa(n.Value)
}

// Expand turns the list into concrete numbers in the order given. Duplicates
// and overlaps are kept; a reversed range yields nothing.
func (l List) Expand() []Number {
	var out []Number
	for _, r := range l {
		out = append(out, r.Expand()...)
	}
	return out
}

// Expand turns one range into concrete numbers.
func (r Range) Expand() []Number {
	start, err := strconv.Atoi(r.Start)
	if err != nil {
		return []Number{{Raw: r.String()}}
	}
	if !r.IsSpan() {
		return []Number{{Value: start}}
	}

	end, err := strconv.Atoi(r.End)
	if err != nil {
		return []Number{{Raw: r.String()}}
	}
	if end < start {
		return nil
	}
	if end-start >= MaxRangeSpan {
		end = start + MaxRangeSpan - 1
	}

	out := make([]Number, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, Number{Value: n})
	}
	return out
}
