package oned

import (
	"strings"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// ITF (Interleaved 2 of 5) encodes pairs of digits: the first digit of each
// pair lives in the five bars, the second in the five spaces.

const (
	itfMaxAvgVariance          = 0.38
	itfMaxIndividualVariance2x = 0.5  // 2x wide lines
	itfMaxIndividualVariance3x = 0.75 // 3x wide lines
)

// Narrow/wide proportions for digits 0-9, duplicated for 2x and 3x wide
// printing: indices 0-9 use wide=2, indices 10-19 use wide=3.
var itfPatterns = [][]int{
	{1, 1, 2, 2, 1}, // 0 (2x)
	{2, 1, 1, 1, 2}, // 1
	{1, 2, 1, 1, 2}, // 2
	{2, 2, 1, 1, 1}, // 3
	{1, 1, 2, 1, 2}, // 4
	{2, 1, 2, 1, 1}, // 5
	{1, 2, 2, 1, 1}, // 6
	{1, 1, 1, 2, 2}, // 7
	{2, 1, 1, 2, 1}, // 8
	{1, 2, 1, 2, 1}, // 9
	{1, 1, 3, 3, 1}, // 0 (3x)
	{3, 1, 1, 1, 3}, // 1
	{1, 3, 1, 1, 3}, // 2
	{3, 3, 1, 1, 1}, // 3
	{1, 1, 3, 1, 3}, // 4
	{3, 1, 3, 1, 1}, // 5
	{1, 3, 3, 1, 1}, // 6
	{1, 1, 1, 3, 3}, // 7
	{3, 1, 1, 3, 1}, // 8
	{1, 3, 1, 3, 1}, // 9
}

// Start guard: narrow bar, space, bar, space. The end guard is wide bar,
// narrow space, narrow bar, scanned here on the reversed row.
var itfStartPattern = []int{1, 1, 1, 1}
var itfEndPatternReversed = [][]int{
	{1, 1, 2}, // 2x
	{1, 1, 3}, // 3x
}

var itfDefaultAllowedLengths = []int{6, 8, 10, 12, 14}

// ITFReader decodes ITF (Interleaved 2 of 5) barcodes.
type ITFReader struct {
	allowedLengths []int
}

// NewITFReader creates a new ITF reader accepting the standard lengths
// 6, 8, 10, 12 and 14.
func NewITFReader() *ITFReader {
	return &ITFReader{allowedLengths: itfDefaultAllowedLengths}
}

// NewITFReaderWithLengths creates an ITF reader restricted to the given
// barcode lengths.
func NewITFReaderWithLengths(lengths []int) *ITFReader {
	if len(lengths) == 0 {
		return NewITFReader()
	}
	return &ITFReader{allowedLengths: lengths}
}

// DecodeRow decodes an ITF barcode from a single row.
func (r *ITFReader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	startRange, narrowLineWidth, err := itfDecodeStart(row)
	if err != nil {
		return nil, err
	}
	endRange, err := itfDecodeEnd(row, narrowLineWidth)
	if err != nil {
		return nil, err
	}

	var result strings.Builder
	if err := itfDecodeMiddle(row, startRange.End, endRange.Begin, &result); err != nil {
		return nil, err
	}
	resultString := result.String()

	lengthOK := false
	maxAllowedLength := 0
	for _, length := range r.allowedLengths {
		if len(resultString) == length {
			lengthOK = true
			break
		}
		if length > maxAllowedLength {
			maxAllowedLength = length
		}
	}
	if !lengthOK && len(resultString) > maxAllowedLength {
		lengthOK = true
	}
	if !lengthOK {
		return nil, linescan.ErrFormat
	}

	res := linescan.NewResult(
		resultString, nil,
		[]linescan.ResultPoint{
			{X: float64(startRange.End), Y: float64(rowNumber)},
			{X: float64(endRange.Begin), Y: float64(rowNumber)},
		},
		linescan.FormatITF,
	)
	res.PutMetadata(linescan.MetadataSymbologyIdentifier, "]I0")
	return res, nil
}

func itfDecodeMiddle(row *bitutil.BitArray, payloadStart, payloadEnd int, result *strings.Builder) error {
	counterDigitPair := make([]int, 10)
	counterBlack := make([]int, 5)
	counterWhite := make([]int, 5)

	for payloadStart < payloadEnd {
		pairRange, err := RecordPattern(row, payloadStart, payloadEnd, counterDigitPair)
		if err != nil {
			return err
		}

		for k := 0; k < 5; k++ {
			counterBlack[k] = counterDigitPair[2*k]
			counterWhite[k] = counterDigitPair[2*k+1]
		}

		bestMatch, err := decodeITFDigit(counterBlack)
		if err != nil {
			return err
		}
		result.WriteByte('0' + byte(bestMatch))

		bestMatch, err = decodeITFDigit(counterWhite)
		if err != nil {
			return err
		}
		result.WriteByte('0' + byte(bestMatch))

		payloadStart = pairRange.End
	}
	return nil
}

func itfDecodeStart(row *bitutil.BitArray) (Range, int, error) {
	endStart := row.GetNextSet(0)
	if endStart == row.Size() {
		return Range{}, 0, linescan.ErrNotFound
	}

	startRange, err := findITFGuardPattern(row, endStart, itfStartPattern)
	if err != nil {
		return Range{}, 0, err
	}

	narrowLineWidth := startRange.Len() / 4
	if err := itfValidateQuietZone(row, startRange.Begin, narrowLineWidth); err != nil {
		return Range{}, 0, err
	}
	return startRange, narrowLineWidth, nil
}

// itfValidateQuietZone requires 10 narrow line widths of whitespace before
// the start (and, on the reversed row, after the end) guard.
func itfValidateQuietZone(row *bitutil.BitArray, startPattern, narrowLineWidth int) error {
	quietZoneSize := narrowLineWidth * 10
	if quietZoneSize < 1 {
		quietZoneSize = 1
	}
	quietStart := startPattern - quietZoneSize
	if quietStart < 0 {
		quietStart = 0
	}
	if !row.IsRange(quietStart, startPattern, false) {
		return linescan.ErrNotFound
	}
	return nil
}

func itfDecodeEnd(row *bitutil.BitArray, narrowLineWidth int) (Range, error) {
	// The end pattern is scanned from the end backwards on the reversed row.
	row.Reverse()
	defer row.Reverse()

	endStart := row.GetNextSet(0)
	if endStart == row.Size() {
		return Range{}, linescan.ErrNotFound
	}

	endRange, err := findITFGuardPattern(row, endStart, itfEndPatternReversed[0])
	if err != nil {
		endRange, err = findITFGuardPattern(row, endStart, itfEndPatternReversed[1])
		if err != nil {
			return Range{}, err
		}
	}

	if err := itfValidateQuietZone(row, endRange.Begin, narrowLineWidth); err != nil {
		return Range{}, err
	}

	// Un-reverse the coordinates.
	return Range{
		Begin: row.Size() - endRange.End,
		End:   row.Size() - endRange.Begin,
	}, nil
}

func findITFGuardPattern(row *bitutil.BitArray, rowOffset int, pattern []int) (Range, error) {
	counters := make([]int, len(pattern))
	return FindPattern(row, rowOffset, row.Size(), counters, func(begin, end int, counters []int) bool {
		return PatternMatchVariance(counters, pattern, itfMaxIndividualVariance2x) < itfMaxAvgVariance
	})
}

func decodeITFDigit(counters []int) (int, error) {
	bestVariance := itfMaxAvgVariance
	bestMatch := -1
	for i, pattern := range itfPatterns {
		maxVariance := itfMaxIndividualVariance2x
		if i > 9 {
			maxVariance = itfMaxIndividualVariance3x
		}
		variance := PatternMatchVariance(counters, pattern, maxVariance)
		if variance < bestVariance {
			bestVariance = variance
			bestMatch = i
		} else if variance == bestVariance {
			bestMatch = -1 // ambiguous match
		}
	}
	if bestMatch < 0 {
		return 0, linescan.ErrNotFound
	}
	return bestMatch % 10, nil
}

var _ RowReader = (*ITFReader)(nil)
