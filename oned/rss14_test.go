package oned

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

func TestRSSIsFinderPattern(t *testing.T) {
	// Elements 2-5 of a finder: the first two take 9.5/12 to 12.5/14 of the
	// total width.
	assert.True(t, rssIsFinderPattern([]int{8, 2, 1, 1}))
	assert.True(t, rssIsFinderPattern([]int{16, 4, 2, 2}))

	// Ratio out of range.
	assert.False(t, rssIsFinderPattern([]int{1, 1, 8, 2}))
	assert.False(t, rssIsFinderPattern([]int{3, 3, 3, 3}))

	// One element 10x another.
	assert.False(t, rssIsFinderPattern([]int{20, 2, 2, 1}))
}

func TestRSSParseFinderValue(t *testing.T) {
	for want, pattern := range rss14FinderPatterns {
		scaled := make([]int, len(pattern))
		for i, w := range pattern {
			scaled[i] = w * 3
		}
		got, err := rssParseFinderValue(scaled, rss14FinderPatterns)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := rssParseFinderValue([]int{50, 1, 1, 50}, rss14FinderPatterns)
	assert.ErrorIs(t, err, linescan.ErrNotFound)
}

func TestRSSIncrementDecrement(t *testing.T) {
	counts := []int{2, 3, 1, 4}
	rssIncrement(counts, []float64{0.1, 0.4, -0.2, 0.3})
	assert.Equal(t, []int{2, 4, 1, 4}, counts)

	rssDecrement(counts, []float64{0.1, -0.4, 0.2, -0.3})
	assert.Equal(t, []int{2, 3, 1, 4}, counts)
}

func TestCombins(t *testing.T) {
	assert.Equal(t, 10, combins(5, 2))
	assert.Equal(t, 120, combins(10, 3))
	assert.Equal(t, 1, combins(4, 0))
	assert.Equal(t, 1, combins(4, 4))
}

func TestGetRSSValue(t *testing.T) {
	// The all-narrow sequence is first in the subset ordering.
	assert.Equal(t, 0, getRSSvalue([]int{1, 1, 1, 1}, 8, false))

	// Widening any element moves the value forward.
	assert.Greater(t, getRSSvalue([]int{2, 1, 1, 1}, 8, false), 0)
	assert.Greater(t,
		getRSSvalue([]int{3, 1, 1, 1}, 8, false),
		getRSSvalue([]int{2, 1, 1, 1}, 8, false))
}

func TestRSS14CheckChecksum(t *testing.T) {
	left := &rssPair{
		checksumPortion: 24,
		finderPattern:   rssFinderPattern{value: 2},
	}
	// target = 9*2 + 4 = 22, adjusted down to 21; (24 + 16*64) % 79 == 21.
	right := &rssPair{
		checksumPortion: 64,
		finderPattern:   rssFinderPattern{value: 4},
	}
	assert.True(t, rss14CheckChecksum(left, right))

	right.checksumPortion = 65
	assert.False(t, rss14CheckChecksum(left, right))
}

func TestRSS14ConstructResult(t *testing.T) {
	left := &rssPair{value: 1}
	right := &rssPair{value: 1}
	// 4537077*1 + 1 = 4537078, zero-padded to 13 digits plus check digit.
	result := rss14ConstructResult(left, right)
	assert.Equal(t, linescan.FormatRSS14, result.Format)
	require.Len(t, result.Text, 14)
	assert.Equal(t, "0000004537078", result.Text[:13])
	assert.True(t, CheckStandardUPCEANChecksum(result.Text))
	assert.Equal(t, "]e0", result.Metadata[linescan.MetadataSymbologyIdentifier])
}

func TestRSS14StateAccumulatesAcrossRows(t *testing.T) {
	s := &rss14State{}

	pair := &rssPair{value: 42}
	s.addOrTally(true, pair)
	require.Len(t, s.possibleLeftPairs, 1)
	assert.Equal(t, 1, s.possibleLeftPairs[0].count)

	// The same value seen again is tallied, not duplicated.
	s.addOrTally(true, &rssPair{value: 42})
	require.Len(t, s.possibleLeftPairs, 1)
	assert.Equal(t, 2, s.possibleLeftPairs[0].count)

	s.addOrTally(false, &rssPair{value: 7})
	assert.Len(t, s.possibleRightPairs, 1)

	// A nil pair (no decode on this row) leaves the tally alone.
	s.addOrTally(true, nil)
	assert.Len(t, s.possibleLeftPairs, 1)
}

func TestRSS14DecodeRowInitializesState(t *testing.T) {
	reader := NewRSS14Reader()
	row := rowFromRuns(4, true, 2, 2, 2, 2, 2, 2)

	var state DecodingState
	_, err := reader.DecodeRow(0, row, &state)
	assert.ErrorIs(t, err, linescan.ErrNotFound)

	// The state slot now carries the accumulator for following rows.
	_, ok := state.(*rss14State)
	assert.True(t, ok)
}

func TestRSS14DecodeRowEmptyRow(t *testing.T) {
	var state DecodingState
	_, err := NewRSS14Reader().DecodeRow(0, bitutil.NewBitArray(0), &state)
	assert.ErrorIs(t, err, linescan.ErrNotFound)
}
