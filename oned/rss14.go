package oned

import (
	"fmt"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// RSS-14 (GS1 DataBar) splits a 14-digit GTIN across a left and a right
// pair, each pair being one finder pattern flanked by two data characters.
// Stacked and truncated variants spread the two pairs over separate rows, so
// pairs are tallied in cross-row decoding state and a result is only emitted
// once a left and a right pair have each been seen at least twice and
// their cross checksum agrees.

var rss14OutsideEvenTotalSubset = []int{1, 10, 34, 70, 126}
var rss14InsideOddTotalSubset = []int{4, 20, 48, 81}
var rss14OutsideGsum = []int{0, 161, 961, 2015, 2715}
var rss14InsideGsum = []int{0, 336, 1036, 1516}
var rss14OutsideOddWidest = []int{8, 6, 4, 3, 1}
var rss14InsideOddWidest = []int{2, 4, 6, 8}

var rss14FinderPatterns = [][]int{
	{3, 8, 2, 1},
	{3, 5, 5, 1},
	{3, 3, 7, 1},
	{3, 1, 9, 1},
	{2, 7, 4, 1},
	{2, 5, 6, 1},
	{2, 3, 8, 1},
	{1, 5, 7, 1},
	{1, 3, 9, 1},
}

// rss14State accumulates candidate pairs across rows of a stacked symbol.
type rss14State struct {
	possibleLeftPairs  []rssPair
	possibleRightPairs []rssPair
}

// RSS14Reader decodes RSS-14 barcodes, including truncated and stacked
// variants.
type RSS14Reader struct{}

// NewRSS14Reader creates a new RSS-14 reader.
func NewRSS14Reader() *RSS14Reader {
	return &RSS14Reader{}
}

// DecodeRow decodes one row of an RSS-14 barcode, tallying the pairs it finds
// into state and emitting a result once a confirmed left/right combination
// passes the cross checksum.
func (r *RSS14Reader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	s, ok := (*state).(*rss14State)
	if !ok {
		s = &rss14State{}
		*state = s
	}

	leftPair := rss14DecodePair(row, false, rowNumber)
	s.addOrTally(true, leftPair)
	row.Reverse()
	rightPair := rss14DecodePair(row, true, rowNumber)
	s.addOrTally(false, rightPair)
	row.Reverse()

	for i := range s.possibleLeftPairs {
		left := &s.possibleLeftPairs[i]
		if left.count <= 1 {
			continue
		}
		for j := range s.possibleRightPairs {
			right := &s.possibleRightPairs[j]
			if right.count > 1 && rss14CheckChecksum(left, right) {
				return rss14ConstructResult(left, right), nil
			}
		}
	}
	return nil, linescan.ErrNotFound
}

func (s *rss14State) addOrTally(isLeft bool, pair *rssPair) {
	if pair == nil {
		return
	}
	list := &s.possibleRightPairs
	if isLeft {
		list = &s.possibleLeftPairs
	}
	for i := range *list {
		if (*list)[i].value == pair.value {
			(*list)[i].count++
			return
		}
	}
	pair.count = 1
	*list = append(*list, *pair)
}

func rss14ConstructResult(leftPair, rightPair *rssPair) *linescan.Result {
	symbolValue := int64(4537077)*int64(leftPair.value) + int64(rightPair.value)
	text := fmt.Sprintf("%d", symbolValue)

	// Pad to 13 digits, then append the GTIN-14 check digit.
	buf := make([]byte, 0, 14)
	for i := 13 - len(text); i > 0; i-- {
		buf = append(buf, '0')
	}
	buf = append(buf, []byte(text)...)

	checkDigit := 0
	for i := 0; i < 13; i++ {
		digit := int(buf[i] - '0')
		if i&1 == 0 {
			checkDigit += 3 * digit
		} else {
			checkDigit += digit
		}
	}
	checkDigit = 10 - (checkDigit % 10)
	if checkDigit == 10 {
		checkDigit = 0
	}
	buf = append(buf, byte('0'+checkDigit))

	result := linescan.NewResult(
		string(buf),
		nil,
		[]linescan.ResultPoint{
			leftPair.finderPattern.resultPoints[0],
			leftPair.finderPattern.resultPoints[1],
			rightPair.finderPattern.resultPoints[0],
			rightPair.finderPattern.resultPoints[1],
		},
		linescan.FormatRSS14,
	)
	result.PutMetadata(linescan.MetadataSymbologyIdentifier, "]e0")
	return result
}

func rss14CheckChecksum(leftPair, rightPair *rssPair) bool {
	checkValue := (leftPair.checksumPortion + 16*rightPair.checksumPortion) % 79
	targetCheckValue := 9*leftPair.finderPattern.value + rightPair.finderPattern.value
	if targetCheckValue > 72 {
		targetCheckValue--
	}
	if targetCheckValue > 8 {
		targetCheckValue--
	}
	return checkValue == targetCheckValue
}

func rss14DecodePair(row *bitutil.BitArray, right bool, rowNumber int) *rssPair {
	finderCounters := make([]int, 4)
	startEnd, err := rss14FindFinderPattern(row, right, finderCounters)
	if err != nil {
		return nil
	}
	pattern, err := rss14ParseFoundFinderPattern(row, rowNumber, right, startEnd, finderCounters)
	if err != nil {
		return nil
	}

	outside, err := rss14DecodeDataCharacter(row, pattern, true)
	if err != nil {
		return nil
	}
	inside, err := rss14DecodeDataCharacter(row, pattern, false)
	if err != nil {
		return nil
	}

	return &rssPair{
		value:           1597*outside.value + inside.value,
		checksumPortion: outside.checksumPortion + 4*inside.checksumPortion,
		finderPattern:   *pattern,
	}
}

func rss14DecodeDataCharacter(row *bitutil.BitArray, pattern *rssFinderPattern, outsideChar bool) (*rssDataCharacter, error) {
	counters := make([]int, 8)

	if outsideChar {
		if _, err := RecordPatternInReverse(row, 0, pattern.startEnd[0], counters); err != nil {
			return nil, err
		}
	} else {
		if _, err := RecordPattern(row, pattern.startEnd[1], row.Size(), counters); err != nil {
			return nil, err
		}
		// The inside character is read away from the finder, so its runs
		// come out mirrored.
		for i, j := 0, len(counters)-1; i < j; i, j = i+1, j-1 {
			counters[i], counters[j] = counters[j], counters[i]
		}
	}

	numModules := 16
	if !outsideChar {
		numModules = 15
	}
	elementWidth := float64(sumInts(counters)) / float64(numModules)

	oddCounts := make([]int, 4)
	evenCounts := make([]int, 4)
	oddRoundingErrors := make([]float64, 4)
	evenRoundingErrors := make([]float64, 4)

	for i := range counters {
		value := float64(counters[i]) / elementWidth
		count := int(value + 0.5)
		if count < 1 {
			count = 1
		} else if count > 8 {
			count = 8
		}
		offset := i / 2
		if i&1 == 0 {
			oddCounts[offset] = count
			oddRoundingErrors[offset] = value - float64(count)
		} else {
			evenCounts[offset] = count
			evenRoundingErrors[offset] = value - float64(count)
		}
	}

	if err := rss14AdjustOddEvenCounts(outsideChar, numModules, oddCounts, evenCounts, oddRoundingErrors, evenRoundingErrors); err != nil {
		return nil, err
	}

	oddSum := 0
	oddChecksumPortion := 0
	for i := len(oddCounts) - 1; i >= 0; i-- {
		oddChecksumPortion *= 9
		oddChecksumPortion += oddCounts[i]
		oddSum += oddCounts[i]
	}
	evenChecksumPortion := 0
	evenSum := 0
	for i := len(evenCounts) - 1; i >= 0; i-- {
		evenChecksumPortion *= 9
		evenChecksumPortion += evenCounts[i]
		evenSum += evenCounts[i]
	}
	checksumPortion := oddChecksumPortion + 3*evenChecksumPortion

	if outsideChar {
		if oddSum&1 != 0 || oddSum > 12 || oddSum < 4 {
			return nil, linescan.ErrNotFound
		}
		group := (12 - oddSum) / 2
		oddWidest := rss14OutsideOddWidest[group]
		evenWidest := 9 - oddWidest
		vOdd := getRSSvalue(oddCounts, oddWidest, false)
		vEven := getRSSvalue(evenCounts, evenWidest, true)
		tEven := rss14OutsideEvenTotalSubset[group]
		gSum := rss14OutsideGsum[group]
		return &rssDataCharacter{value: vOdd*tEven + vEven + gSum, checksumPortion: checksumPortion}, nil
	}

	if evenSum&1 != 0 || evenSum > 10 || evenSum < 4 {
		return nil, linescan.ErrNotFound
	}
	group := (10 - evenSum) / 2
	oddWidest := rss14InsideOddWidest[group]
	evenWidest := 9 - oddWidest
	vOdd := getRSSvalue(oddCounts, oddWidest, true)
	vEven := getRSSvalue(evenCounts, evenWidest, false)
	tOdd := rss14InsideOddTotalSubset[group]
	gSum := rss14InsideGsum[group]
	return &rssDataCharacter{value: vEven*tOdd + vOdd + gSum, checksumPortion: checksumPortion}, nil
}

// rss14FindFinderPattern locates runs 2-5 of a finder pattern; the first
// element is recovered afterwards by scanning backwards.
func rss14FindFinderPattern(row *bitutil.BitArray, rightFinderPattern bool, counters []int) (Range, error) {
	// The left finder starts on a bar, the right one (on the reversed row)
	// on a space.
	width := row.Size()
	rowOffset := 0
	for rowOffset < width {
		isWhite := !row.Get(rowOffset)
		if rightFinderPattern == isWhite {
			break
		}
		rowOffset++
	}

	return FindPattern(row, rowOffset, width, counters, func(begin, end int, counters []int) bool {
		return rssIsFinderPattern(counters)
	})
}

func rss14ParseFoundFinderPattern(row *bitutil.BitArray, rowNumber int, right bool, startEnd Range, counters []int) (*rssFinderPattern, error) {
	// Recover the first element by walking backwards from the found window.
	firstIsBlack := row.Get(startEnd.Begin)
	firstElementStart := startEnd.Begin - 1
	for firstElementStart >= 0 && firstIsBlack != row.Get(firstElementStart) {
		firstElementStart--
	}
	firstElementStart++
	firstCounter := startEnd.Begin - firstElementStart

	// Shift counters to hold elements 1-4.
	copy(counters[1:], counters[:3])
	counters[0] = firstCounter

	value, err := rssParseFinderValue(counters, rss14FinderPatterns)
	if err != nil {
		return nil, err
	}

	start := firstElementStart
	end := startEnd.End
	if right {
		// Mirror back into the unreversed row's coordinates.
		start = row.Size() - 1 - start
		end = row.Size() - 1 - end
	}
	return &rssFinderPattern{
		value:    value,
		startEnd: [2]int{firstElementStart, startEnd.End},
		resultPoints: [2]linescan.ResultPoint{
			{X: float64(start), Y: float64(rowNumber)},
			{X: float64(end), Y: float64(rowNumber)},
		},
	}, nil
}

func rss14AdjustOddEvenCounts(outsideChar bool, numModules int, oddCounts, evenCounts []int, oddRoundingErrors, evenRoundingErrors []float64) error {
	oddSum := sumInts(oddCounts)
	evenSum := sumInts(evenCounts)

	incrementOdd := false
	decrementOdd := false
	incrementEven := false
	decrementEven := false

	if outsideChar {
		if oddSum > 12 {
			decrementOdd = true
		} else if oddSum < 4 {
			incrementOdd = true
		}
		if evenSum > 12 {
			decrementEven = true
		} else if evenSum < 4 {
			incrementEven = true
		}
	} else {
		if oddSum > 11 {
			decrementOdd = true
		} else if oddSum < 5 {
			incrementOdd = true
		}
		if evenSum > 10 {
			decrementEven = true
		} else if evenSum < 4 {
			incrementEven = true
		}
	}

	mismatch := oddSum + evenSum - numModules
	oddParityBad := (oddSum & 1) == 1
	if !outsideChar {
		oddParityBad = (oddSum & 1) == 0
	}
	evenParityBad := (evenSum & 1) == 1

	switch mismatch {
	case 1:
		if oddParityBad {
			if evenParityBad {
				return linescan.ErrNotFound
			}
			decrementOdd = true
		} else {
			if !evenParityBad {
				return linescan.ErrNotFound
			}
			decrementEven = true
		}
	case -1:
		if oddParityBad {
			if evenParityBad {
				return linescan.ErrNotFound
			}
			incrementOdd = true
		} else {
			if !evenParityBad {
				return linescan.ErrNotFound
			}
			incrementEven = true
		}
	case 0:
		if oddParityBad {
			if !evenParityBad {
				return linescan.ErrNotFound
			}
			if oddSum < evenSum {
				incrementOdd = true
				decrementEven = true
			} else {
				decrementOdd = true
				incrementEven = true
			}
		} else if evenParityBad {
			return linescan.ErrNotFound
		}
	default:
		return linescan.ErrNotFound
	}

	if incrementOdd {
		if decrementOdd {
			return linescan.ErrNotFound
		}
		rssIncrement(oddCounts, oddRoundingErrors)
	}
	if decrementOdd {
		rssDecrement(oddCounts, oddRoundingErrors)
	}
	if incrementEven {
		if decrementEven {
			return linescan.ErrNotFound
		}
		rssIncrement(evenCounts, oddRoundingErrors)
	}
	if decrementEven {
		rssDecrement(evenCounts, evenRoundingErrors)
	}
	return nil
}

var _ RowReader = (*RSS14Reader)(nil)
