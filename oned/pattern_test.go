package oned

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	assert.True(t, Range{Begin: 2, End: 5}.IsValid())
	assert.Equal(t, 3, Range{Begin: 2, End: 5}.Len())
	assert.False(t, Range{}.IsValid())
	assert.False(t, Range{Begin: 5, End: 5}.IsValid())
}

func TestBarAndSpace(t *testing.T) {
	assert.True(t, BarAndSpace{Bar: 1, Space: 2}.IsValid())
	assert.False(t, BarAndSpace{Bar: 1}.IsValid())
	assert.False(t, BarAndSpace{}.IsValid())
}

func TestNewPatternView(t *testing.T) {
	row := rowFromRuns(3, true, 2, 4, 1, 3)
	view := NewPatternView(row, 3, 13)

	require.Equal(t, 4, view.Size())
	assert.Equal(t, []int{2, 4, 1, 3}, []int{view.At(0), view.At(1), view.At(2), view.At(3)})
	assert.True(t, view.IsBar(0))
	assert.False(t, view.IsBar(1))
	assert.True(t, view.IsBar(2))
	assert.Equal(t, 3, view.Begin())
	assert.Equal(t, 13, view.End())
	assert.Equal(t, 10, view.Sum())
}

func TestNewPatternViewSpaceFirst(t *testing.T) {
	row := rowFromRuns(0, true, 2, 3, 2)
	view := NewPatternView(row, 2, 7)

	require.Equal(t, 2, view.Size())
	assert.False(t, view.IsBar(0))
	assert.True(t, view.IsBar(1))
	assert.Equal(t, 3, view.At(0))
	assert.Equal(t, 2, view.At(1))
}

func TestViewOfCounters(t *testing.T) {
	view := ViewOfCounters([]int{1, 2, 3}, 7, false)
	assert.Equal(t, 3, view.Size())
	assert.False(t, view.IsBar(0))
	assert.True(t, view.IsBar(1))
	assert.Equal(t, 7, view.Begin())
	assert.Equal(t, 13, view.End())
}

func TestPatternViewToBitArray(t *testing.T) {
	row := rowFromRuns(0, true, 2, 3, 4, 1)
	view := NewPatternView(row, 0, row.Size())
	materialized := view.ToBitArray()

	require.Equal(t, row.Size(), materialized.Size())
	for i := 0; i < row.Size(); i++ {
		assert.Equal(t, row.Get(i), materialized.Get(i), "bit %d", i)
	}
}
