package oned

import (
	"math"

	"github.com/linescan/linescan"
)

// Shared machinery for the RSS (GS1 DataBar) family: finder pattern
// recognition, rounding-error driven count adjustment, and the combinatorial
// character value computation.

const (
	rssMaxAvgVariance        = 0.2
	rssMaxIndividualVariance = 0.45
	rssMinFinderPatternRatio = 9.5 / 12.0
	rssMaxFinderPatternRatio = 12.5 / 14.0
)

// rssDataCharacter is a single decoded character value with its checksum
// contribution.
type rssDataCharacter struct {
	value           int
	checksumPortion int
}

// rssFinderPattern is a located RSS finder pattern.
type rssFinderPattern struct {
	value        int
	startEnd     [2]int
	resultPoints [2]linescan.ResultPoint
}

// rssPair is a decoded left or right half of an RSS-14 symbol, tallied
// across rows.
type rssPair struct {
	value           int
	checksumPortion int
	finderPattern   rssFinderPattern
	count           int
}

// rssParseFinderValue matches counters against the known finder patterns and
// returns the index of the first fit.
func rssParseFinderValue(counters []int, finderPatterns [][]int) (int, error) {
	for value := 0; value < len(finderPatterns); value++ {
		if PatternMatchVariance(counters, finderPatterns[value], rssMaxIndividualVariance) < rssMaxAvgVariance {
			return value, nil
		}
	}
	return 0, linescan.ErrNotFound
}

// rssIsFinderPattern reports whether four run widths satisfy the RSS finder
// pattern proportions: the first two elements take 9.5/12 to 12.5/14 of the
// total, and no element is 10x another.
func rssIsFinderPattern(counters []int) bool {
	firstTwoSum := counters[0] + counters[1]
	sum := firstTwoSum + counters[2] + counters[3]
	ratio := float64(firstTwoSum) / float64(sum)
	if ratio < rssMinFinderPatternRatio || ratio > rssMaxFinderPatternRatio {
		return false
	}
	minCounter := math.MaxInt32
	maxCounter := math.MinInt32
	for _, c := range counters {
		maxCounter = max(maxCounter, c)
		minCounter = min(minCounter, c)
	}
	return maxCounter < 10*minCounter
}

// rssIncrement bumps the element with the largest positive rounding error.
func rssIncrement(array []int, errors []float64) {
	index := 0
	biggestError := errors[0]
	for i := 1; i < len(array); i++ {
		if errors[i] > biggestError {
			biggestError = errors[i]
			index = i
		}
	}
	array[index]++
}

// rssDecrement drops the element with the largest negative rounding error.
func rssDecrement(array []int, errors []float64) {
	index := 0
	biggestError := errors[0]
	for i := 1; i < len(array); i++ {
		if errors[i] < biggestError {
			biggestError = errors[i]
			index = i
		}
	}
	array[index]--
}

func sumInts(a []int) int {
	s := 0
	for _, v := range a {
		s += v
	}
	return s
}

// combins computes n-choose-r.
func combins(n, r int) int {
	var maxDenom, minDenom int
	if n-r > r {
		minDenom = r
		maxDenom = n - r
	} else {
		minDenom = n - r
		maxDenom = r
	}
	val := 1
	j := 1
	for i := n; i > maxDenom; i-- {
		val *= i
		if j <= minDenom {
			val /= j
			j++
		}
	}
	for j <= minDenom {
		val /= j
		j++
	}
	return val
}

// getRSSvalue computes the RSS character value of a width sequence within
// its subset (bounded element width, optionally excluding all-narrow).
func getRSSvalue(widths []int, maxWidth int, noNarrow bool) int {
	n := sumInts(widths)
	val := 0
	narrowMask := 0
	elements := len(widths)
	for bar := 0; bar < elements-1; bar++ {
		elmWidth := 1
		narrowMask |= 1 << uint(bar)
		for elmWidth < widths[bar] {
			subVal := combins(n-elmWidth-1, elements-bar-2)
			if noNarrow && narrowMask == 0 &&
				n-elmWidth-(elements-bar-1) >= elements-bar-1 {
				subVal -= combins(n-elmWidth-(elements-bar), elements-bar-2)
			}
			if elements-bar-1 > 1 {
				lessVal := 0
				for mxwElement := n - elmWidth - (elements - bar - 2); mxwElement > maxWidth; mxwElement-- {
					lessVal += combins(n-elmWidth-mxwElement-1, elements-bar-3)
				}
				subVal -= lessVal * (elements - 1 - bar)
			} else if n-elmWidth > maxWidth {
				subVal--
			}
			val += subVal
			elmWidth++
			narrowMask &^= 1 << uint(bar)
		}
		n -= elmWidth
	}
	return val
}
