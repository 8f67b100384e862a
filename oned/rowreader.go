// Package oned implements one-dimensional barcode reading: the shared
// row-decoding kernel (run extraction, sliding-window pattern search, fit
// scoring, narrow/wide classification) and a reader per symbology built on
// top of it.
package oned

import (
	"math"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// DecodingState is an opaque, symbology-owned value a decoder may use to
// accumulate partial results across successive rows of a stacked symbology.
// It is created empty by the caller before the first row, threaded by
// reference through each DecodeRow call, and discarded once a decode
// completes or is abandoned. A given state instance must not be shared
// across concurrent decode attempts.
type DecodingState interface{}

// RowReader decodes a single row of a 1D barcode. Reader values themselves
// are stateless and safe to share across rows; all cross-row accumulation
// lives in the caller-owned DecodingState.
type RowReader interface {
	// DecodeRow attempts to decode a barcode from a single row. The row
	// number is carried into result geometry only and plays no part in
	// decoding.
	DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error)
}

// DecodeSingleRow runs one independent decode attempt with fresh state.
func DecodeSingleRow(r RowReader, rowNumber int, row *bitutil.BitArray) (*linescan.Result, error) {
	var state DecodingState
	return r.DecodeRow(rowNumber, row, &state)
}

// DecodePattern decodes a barcode directly from a run-length window rather
// than a raw row, offsetting the result geometry back into the coordinates
// of the row the view was derived from.
func DecodePattern(r RowReader, rowNumber int, view PatternView, state *DecodingState) (*linescan.Result, error) {
	result, err := r.DecodeRow(rowNumber, view.ToBitArray(), state)
	if err != nil {
		return nil, err
	}
	for i := range result.Points {
		result.Points[i].X += float64(view.Begin())
	}
	return result, nil
}

// MatchFunc is the acceptance test evaluated by FindPattern on every full
// counter window. begin/end is the position range the window covers.
type MatchFunc func(begin, end int, counters []int) bool

// FindPattern scans row positions [begin, end) for a pattern identified by
// evaluating match on each successive window of len(counters) runs. On
// rejection the window slides forward by the combined width of its first two
// runs (one bar plus one space) and the remaining counters shift left. If
// the pattern is found its position range is returned; otherwise ErrNotFound.
func FindPattern(row *bitutil.BitArray, begin, end int, counters []int, match MatchFunc) (Range, error) {
	if end > row.Size() {
		end = row.Size()
	}
	if begin >= end {
		return Range{}, linescan.ErrNotFound
	}

	cur := 0
	li := begin
	i := begin
	for {
		if row.Get(i) {
			i = row.GetNextUnset(i)
		} else {
			i = row.GetNextSet(i)
		}
		if i >= end {
			break
		}
		counters[cur] = i - li
		cur++
		if cur == len(counters) {
			if match(begin, i, counters) {
				return Range{Begin: begin, End: i}, nil
			}
			begin += counters[0] + counters[1]
			copy(counters, counters[2:])
			cur -= 2
		}
		li = i
	}
	// Ran into the end of the range: still record the final run so that
	// RecordPattern can accept a symbol flush against the end of the row.
	counters[cur] = end - li
	return Range{}, linescan.ErrNotFound
}

// RecordPattern fills counters with the widths of the first len(counters)
// consecutive runs starting at begin. The color of the first run is whatever
// the pixel at begin is; colors alternate thereafter. The scan fails with
// ErrNotFound if the row range is exhausted first, except that a final run
// completing exactly at end is accepted.
func RecordPattern(row *bitutil.BitArray, begin, end int, counters []int) (Range, error) {
	// Mark the last counter slot empty so a flush-to-end fill is detectable.
	counters[len(counters)-1] = 0

	r, err := FindPattern(row, begin, end, counters, func(int, int, []int) bool { return true })
	if err != nil {
		if counters[len(counters)-1] != 0 {
			return Range{Begin: begin, End: end}, nil
		}
		return Range{}, err
	}
	return r, nil
}

// RecordPatternInReverse is RecordPattern scanning backward from end toward
// begin. The recorded counters and the returned range are in forward order,
// so callers never observe the direction of traversal.
func RecordPatternInReverse(row *bitutil.BitArray, begin, end int, counters []int) (Range, error) {
	if end > row.Size() {
		end = row.Size()
	}
	if begin >= end {
		return Range{}, linescan.ErrNotFound
	}

	cur := len(counters) - 1
	runEnd := end
	color := row.Get(end - 1)
	for i := end - 1; i >= begin; i-- {
		if row.Get(i) == color {
			continue
		}
		counters[cur] = runEnd - (i + 1)
		cur--
		if cur < 0 {
			return Range{Begin: i + 1, End: end}, nil
		}
		runEnd = i + 1
		color = !color
	}
	// Ran into begin: accept if only the first run was still open.
	if cur == 0 {
		counters[0] = runEnd - begin
		return Range{Begin: begin, End: end}, nil
	}
	return Range{}, linescan.ErrNotFound
}

// PatternMatchVariance determines how closely observed run widths match a
// target pattern of relative widths. The result is the ratio of the total
// deviation from the expected proportions to the total observed width; lower
// is better and 0 is a perfect proportional match. Any single element
// deviating by more than maxIndividualVariance (in units of the estimated
// module width) yields +Inf. counters and pattern must have equal length.
func PatternMatchVariance(counters, pattern []int, maxIndividualVariance float64) float64 {
	if len(counters) != len(pattern) {
		panic("oned: counters and pattern must have equal length")
	}
	total := 0
	patternLength := 0
	for i := range counters {
		total += counters[i]
		patternLength += pattern[i]
	}
	if total < patternLength {
		// A symbol this narrow cannot have one pixel per module.
		return math.Inf(1)
	}

	unitWidth := float64(total) / float64(patternLength)
	maxIndividualVariance *= unitWidth

	totalVariance := 0.0
	for i := range counters {
		variance := float64(counters[i]) - float64(pattern[i])*unitWidth
		if variance < 0 {
			variance = -variance
		}
		if variance > maxIndividualVariance {
			return math.Inf(1)
		}
		totalVariance += variance
	}
	return totalVariance / float64(total)
}

// DecodeDigit scores counters against every candidate pattern and returns
// the index of the best match below maxAvgVariance. With
// requireUnambiguousMatch set, a later candidate tying the best score
// exactly invalidates the match: identical scores mean the observed widths
// cannot reliably distinguish two alphabet symbols.
func DecodeDigit(counters []int, patterns [][]int, maxAvgVariance, maxIndividualVariance float64, requireUnambiguousMatch bool) (int, error) {
	bestVariance := maxAvgVariance // worst variance we'll accept
	bestMatch := -1
	for i, pattern := range patterns {
		variance := PatternMatchVariance(counters, pattern, maxIndividualVariance)
		if variance < bestVariance {
			bestVariance = variance
			bestMatch = i
		} else if requireUnambiguousMatch && variance == bestVariance {
			bestMatch = -1
		}
	}
	if bestMatch < 0 {
		return 0, linescan.ErrNotFound
	}
	return bestMatch, nil
}

// NarrowWideThreshold calculates the width thresholds separating narrow from
// wide bars and spaces in a window holding one character of a two-width
// symbology (Codabar, Code 39, ITF), where wide elements run 2-3x the narrow
// width. The zero BarAndSpace is returned when the window cannot be a valid
// character: the wide/narrow ratio exceeds 4:1 (with a +1 rounding
// tolerance), or bar and space widths diverge from each other by more than a
// 2-3x factor.
func NarrowWideThreshold(view PatternView) BarAndSpace {
	m := BarAndSpace{Bar: math.MaxInt32, Space: math.MaxInt32}
	M := BarAndSpace{}
	for i := 0; i < view.Size(); i++ {
		w := view.At(i)
		if view.IsBar(i) {
			m.Bar = min(m.Bar, w)
			M.Bar = max(M.Bar, w)
		} else {
			m.Space = min(m.Space, w)
			M.Space = max(M.Space, w)
		}
	}

	if M.Bar > 4*(m.Bar+1) || M.Bar > 3*M.Space || m.Bar > 2*(m.Space+1) {
		return BarAndSpace{}
	}
	if M.Space > 4*(m.Space+1) || M.Space > 3*M.Bar || m.Space > 2*(m.Bar+1) {
		return BarAndSpace{}
	}

	// The threshold is the average of min and max but at least 1.5x min:
	// wide elements cluster near 2-3x narrow, so bias low.
	return BarAndSpace{
		Bar:   max((m.Bar+M.Bar)/2, m.Bar*3/2),
		Space: max((m.Space+M.Space)/2, m.Space*3/2),
	}
}

// ToNarrowWidePattern classifies each element of the view against its
// bar/space threshold and returns a bitfield, most significant bit first,
// where a 0 bit means narrow and a 1 bit means wide. The second return value
// is false when no valid threshold exists or an element is wider than twice
// its threshold (a noise spike rather than a clean narrow/wide case).
func ToNarrowWidePattern(view PatternView) (int, bool) {
	threshold := NarrowWideThreshold(view)
	if !threshold.IsValid() {
		return 0, false
	}

	pattern := 0
	for i := 0; i < view.Size(); i++ {
		t := threshold.Space
		if view.IsBar(i) {
			t = threshold.Bar
		}
		w := view.At(i)
		if w > 2*t {
			return 0, false
		}
		pattern <<= 1
		if w > t {
			pattern |= 1
		}
	}
	return pattern, true
}

// DecodeNarrowWidePattern classifies the view as a narrow/wide bitfield and
// looks it up in a symbology's encoding table, returning the corresponding
// alphabet character.
func DecodeNarrowWidePattern(view PatternView, table []int, alphabet string) (byte, error) {
	pattern, ok := ToNarrowWidePattern(view)
	if !ok {
		return 0, linescan.ErrNotFound
	}
	for i, enc := range table {
		if enc == pattern {
			return alphabet[i], nil
		}
	}
	return 0, linescan.ErrNotFound
}
