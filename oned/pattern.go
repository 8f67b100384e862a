package oned

import "github.com/linescan/linescan/bitutil"

// Range is a half-open position range [Begin, End) within a row.
type Range struct {
	Begin, End int
}

// IsValid reports whether the range is non-empty.
func (r Range) IsValid() bool {
	return r.Begin < r.End
}

// Len returns the number of positions covered by the range.
func (r Range) Len() int {
	return r.End - r.Begin
}

// BarAndSpace holds one value for bars and one for spaces. Print and scan
// processes often bias bar widths and space widths differently, so thresholds
// and extrema are tracked per color.
type BarAndSpace struct {
	Bar, Space int
}

// IsValid reports whether both values have been populated.
func (bs BarAndSpace) IsValid() bool {
	return bs.Bar > 0 && bs.Space > 0
}

// PatternView is a non-owning run-length window over a contiguous sub-range
// of a row: an ordered sequence of alternating bar/space widths plus the
// color of the first run. The sum of the widths equals the length of the
// position range the view covers.
type PatternView struct {
	widths   []int
	begin    int
	barFirst bool
}

// NewPatternView derives a run-length view over row positions [begin, end).
func NewPatternView(row *bitutil.BitArray, begin, end int) PatternView {
	if end > row.Size() {
		end = row.Size()
	}
	view := PatternView{begin: begin, barFirst: begin < end && row.Get(begin)}
	for i := begin; i < end; {
		var next int
		if row.Get(i) {
			next = row.GetNextUnset(i)
		} else {
			next = row.GetNextSet(i)
		}
		if next > end {
			next = end
		}
		view.widths = append(view.widths, next-i)
		i = next
	}
	return view
}

// ViewOfCounters wraps already-recorded run widths as a PatternView starting
// at the given row position.
func ViewOfCounters(counters []int, begin int, barFirst bool) PatternView {
	return PatternView{widths: counters, begin: begin, barFirst: barFirst}
}

// Size returns the number of runs in the view.
func (v PatternView) Size() int {
	return len(v.widths)
}

// At returns the width of run i.
func (v PatternView) At(i int) int {
	return v.widths[i]
}

// IsBar reports whether run i is a bar.
func (v PatternView) IsBar(i int) bool {
	return v.barFirst == (i%2 == 0)
}

// Begin returns the first row position covered by the view.
func (v PatternView) Begin() int {
	return v.begin
}

// End returns the row position just past the view.
func (v PatternView) End() int {
	return v.begin + v.Sum()
}

// Sum returns the combined width of all runs.
func (v PatternView) Sum() int {
	total := 0
	for _, w := range v.widths {
		total += w
	}
	return total
}

// ToBitArray materializes the view as a standalone row. Positions before the
// view's own begin offset are not represented; the result starts at the
// view's first run.
func (v PatternView) ToBitArray() *bitutil.BitArray {
	row := bitutil.NewBitArray(v.Sum())
	pos := 0
	for i, w := range v.widths {
		if v.IsBar(i) {
			row.SetRange(pos, pos+w)
		}
		pos += w
	}
	return row
}
