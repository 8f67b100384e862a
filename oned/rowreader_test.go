package oned

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// rowFromRuns builds a row from run widths, the first run starting at offset
// with the given color. Positions outside the runs are white.
func rowFromRuns(offset int, barFirst bool, runs ...int) *bitutil.BitArray {
	total := offset
	for _, r := range runs {
		total += r
	}
	row := bitutil.NewBitArray(total + offset)
	pos := offset
	bar := barFirst
	for _, r := range runs {
		if bar {
			row.SetRange(pos, pos+r)
		}
		pos += r
		bar = !bar
	}
	return row
}

func TestRecordPattern(t *testing.T) {
	// A trailing bar keeps the final space run from merging with padding.
	row := rowFromRuns(4, true, 2, 3, 1, 4, 2, 5, 3)
	counters := make([]int, 6)

	r, err := RecordPattern(row, 4, row.Size(), counters)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1, 4, 2, 5}, counters)
	assert.Equal(t, 4, r.Begin)
	assert.Equal(t, r.Len(), sumInts(counters))
}

func TestRecordPatternFlushAgainstEnd(t *testing.T) {
	// Exactly 4 runs and the last one ends at the row boundary.
	row := rowFromRuns(0, true, 3, 2, 3, 2)
	counters := make([]int, 4)

	r, err := RecordPattern(row, 0, row.Size(), counters)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 3, 2}, counters)
	assert.Equal(t, Range{Begin: 0, End: row.Size()}, r)
}

func TestRecordPatternTooFewRuns(t *testing.T) {
	row := rowFromRuns(0, true, 3, 2, 3)
	counters := make([]int, 6)

	_, err := RecordPattern(row, 0, row.Size(), counters)
	assert.ErrorIs(t, err, linescan.ErrNotFound)
}

func TestRecordPatternInReverseMirrorsForward(t *testing.T) {
	row := rowFromRuns(5, true, 2, 1, 3, 1, 2, 4, 2)

	forward := make([]int, 6)
	fr, err := RecordPattern(row, 5, row.Size(), forward)
	require.NoError(t, err)

	backward := make([]int, 6)
	br, err := RecordPatternInReverse(row, 0, fr.End, backward)
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
	assert.Equal(t, fr, br)
}

func TestRecordPatternInReverseMatchesReversedRow(t *testing.T) {
	row := rowFromRuns(3, true, 2, 1, 4, 2, 3, 1, 2)

	backward := make([]int, 5)
	br, err := RecordPatternInReverse(row, 0, 18, backward)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2, 3, 1, 2}, backward)

	// Scanning the mirrored row forward from the mirrored position must see
	// the same runs in the opposite order.
	mirrored := row.Clone()
	mirrored.Reverse()
	forward := make([]int, 5)
	fr, err := RecordPattern(mirrored, mirrored.Size()-br.End, mirrored.Size(), forward)
	require.NoError(t, err)

	for i := range forward {
		assert.Equal(t, backward[len(backward)-1-i], forward[i])
	}
	assert.Equal(t, br.Len(), fr.Len())
	assert.Equal(t, mirrored.Size()-br.End, fr.Begin)
}

func TestRecordPatternInReverseFlushAgainstBegin(t *testing.T) {
	row := rowFromRuns(0, true, 4, 2, 3)
	counters := make([]int, 3)

	r, err := RecordPatternInReverse(row, 0, 9, counters)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2, 3}, counters)
	assert.Equal(t, Range{Begin: 0, End: 9}, r)
}

func TestFindPatternSlidesPastRejections(t *testing.T) {
	// Noise, then an exact 1:2:2:6 target two bar/space pairs in.
	row := rowFromRuns(2, true, 5, 5, 1, 2, 2, 6, 2)
	target := []int{1, 2, 2, 6}
	counters := make([]int, 4)

	r, err := FindPattern(row, row.GetNextSet(0), row.Size(), counters, func(begin, end int, counters []int) bool {
		return PatternMatchVariance(counters, target, 0.5) < 0.2
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2, 6}, counters)
	assert.Equal(t, 11, r.Len())
	assert.Equal(t, 12, r.Begin)
}

func TestFindPatternNotFound(t *testing.T) {
	row := rowFromRuns(0, true, 5, 5, 5, 5)
	counters := make([]int, 4)

	_, err := FindPattern(row, 0, row.Size(), counters, func(begin, end int, counters []int) bool {
		return false
	})
	assert.ErrorIs(t, err, linescan.ErrNotFound)
}

func TestPatternMatchVariance(t *testing.T) {
	// Exact 3x multiple of the pattern scores zero.
	assert.Equal(t, 0.0, PatternMatchVariance([]int{3, 6, 3, 3}, []int{1, 2, 1, 1}, 0.7))

	// A growing deviation grows the score.
	v1 := PatternMatchVariance([]int{3, 7, 3, 3}, []int{1, 2, 1, 1}, 0.7)
	v2 := PatternMatchVariance([]int{3, 8, 3, 3}, []int{1, 2, 1, 1}, 0.7)
	assert.Greater(t, v1, 0.0)
	assert.Greater(t, v2, v1)

	// Total narrower than the pattern's module count cannot match.
	assert.True(t, math.IsInf(PatternMatchVariance([]int{1, 1, 1}, []int{2, 2, 2}, 0.7), 1))

	// One element blowing the individual bound rejects outright.
	assert.True(t, math.IsInf(PatternMatchVariance([]int{4, 4, 12, 4}, []int{1, 1, 1, 1}, 0.7), 1))
}

func TestPatternMatchVariancePanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() {
		PatternMatchVariance([]int{1, 2, 3}, []int{1, 2}, 0.7)
	})
}

func TestDecodeDigit(t *testing.T) {
	patterns := [][]int{
		{1, 2, 1, 1},
		{2, 1, 1, 1},
		{1, 1, 2, 1},
	}

	match, err := DecodeDigit([]int{2, 4, 2, 2}, patterns, 0.5, 0.7, false)
	require.NoError(t, err)
	assert.Equal(t, 0, match)

	_, err = DecodeDigit([]int{9, 1, 1, 1}, patterns, 0.2, 0.7, false)
	assert.ErrorIs(t, err, linescan.ErrNotFound)
}

func TestDecodeDigitAmbiguity(t *testing.T) {
	// Two identical candidates tie exactly; an unambiguous decode must fail,
	// a plain best-match decode keeps the first.
	patterns := [][]int{
		{1, 2, 1, 1},
		{1, 2, 1, 1},
	}
	counters := []int{2, 4, 2, 2}

	_, err := DecodeDigit(counters, patterns, 0.5, 0.7, true)
	assert.ErrorIs(t, err, linescan.ErrNotFound)

	match, err := DecodeDigit(counters, patterns, 0.5, 0.7, false)
	require.NoError(t, err)
	assert.Equal(t, 0, match)
}

func TestUniformRunSymbolDegrades(t *testing.T) {
	// A nine-run all-equal-width character, Code 93 style.
	ideal := []int{1, 1, 1, 1, 1, 1, 1, 1, 1}

	exact := []int{2, 2, 2, 2, 2, 2, 2, 2, 2}
	assert.Equal(t, 0.0, PatternMatchVariance(exact, ideal, 0.9))
	match, err := DecodeDigit(exact, [][]int{ideal}, 0.5, 0.9, false)
	require.NoError(t, err)
	assert.Equal(t, 0, match)

	// Doubling the middle run leaves a measurable non-zero score.
	doubled := []int{2, 2, 2, 2, 4, 2, 2, 2, 2}
	assert.Greater(t, PatternMatchVariance(doubled, ideal, 0.9), 0.0)

	// Stretching it far enough fails the match entirely.
	blown := []int{2, 2, 2, 2, 18, 2, 2, 2, 2}
	_, err = DecodeDigit(blown, [][]int{ideal}, 0.5, 0.9, false)
	assert.ErrorIs(t, err, linescan.ErrNotFound)
}

func TestNarrowWideThreshold(t *testing.T) {
	// Clean narrow=2, wide=6 character.
	view := ViewOfCounters([]int{2, 2, 6, 6, 2, 2, 6, 2, 2}, 0, true)
	th := NarrowWideThreshold(view)
	require.True(t, th.IsValid())
	assert.Equal(t, 4, th.Bar)
	assert.Equal(t, 4, th.Space)

	// All-equal runs are valid: the threshold falls at 1.5x narrow.
	view = ViewOfCounters([]int{2, 2, 2, 2, 2}, 0, true)
	th = NarrowWideThreshold(view)
	require.True(t, th.IsValid())
	assert.Equal(t, 3, th.Bar)

	// A 12:1 bar ratio cannot be a two-width character.
	view = ViewOfCounters([]int{1, 2, 12, 2, 1}, 0, true)
	assert.False(t, NarrowWideThreshold(view).IsValid())

	// Bars and spaces diverging by more than 3x is rejected too.
	view = ViewOfCounters([]int{9, 1, 9, 1, 9}, 0, true)
	assert.False(t, NarrowWideThreshold(view).IsValid())
}

func TestToNarrowWidePattern(t *testing.T) {
	// narrow=2, wide=6: wide runs at indices 2, 3 and 6.
	view := ViewOfCounters([]int{2, 2, 6, 6, 2, 2, 6, 2, 2}, 0, true)
	pattern, ok := ToNarrowWidePattern(view)
	require.True(t, ok)
	assert.Equal(t, 0b001100100, pattern)

	// No valid threshold, no pattern.
	view = ViewOfCounters([]int{1, 2, 12, 2, 1}, 0, true)
	_, ok = ToNarrowWidePattern(view)
	assert.False(t, ok)
}

func TestDecodeNarrowWidePattern(t *testing.T) {
	table := []int{0b001100100}
	view := ViewOfCounters([]int{2, 2, 6, 6, 2, 2, 6, 2, 2}, 0, true)

	ch, err := DecodeNarrowWidePattern(view, table, "Z")
	require.NoError(t, err)
	assert.Equal(t, byte('Z'), ch)

	_, err = DecodeNarrowWidePattern(view, []int{0b111111111}, "A")
	assert.ErrorIs(t, err, linescan.ErrNotFound)
}

func TestDecodeSingleRow(t *testing.T) {
	row := encodeTestRow(encodeCode39("CLEAN"), 10)
	result, err := DecodeSingleRow(NewCode39Reader(), 7, row)
	require.NoError(t, err)
	assert.Equal(t, "CLEAN", result.Text)
	assert.Equal(t, 7.0, result.Points[0].Y)
}

func TestDecodePatternOffsetsGeometry(t *testing.T) {
	row := encodeTestRow(encodeCode39("OFFSET"), 10)
	view := NewPatternView(row, 0, row.Size())

	var state DecodingState
	direct, err := DecodeSingleRow(NewCode39Reader(), 0, row)
	require.NoError(t, err)
	viaView, err := DecodePattern(NewCode39Reader(), 0, view, &state)
	require.NoError(t, err)

	assert.Equal(t, direct.Text, viaView.Text)
	assert.Equal(t, direct.Points[0].X, viaView.Points[0].X)
}
