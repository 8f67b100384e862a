package oned

import (
	"strings"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

const (
	upceanMaxAvgVariance        = 0.48
	upceanMaxIndividualVariance = 0.7
)

// UPC/EAN guard patterns.
var (
	upceanStartEndPattern = []int{1, 1, 1}
	upceanMiddlePattern   = []int{1, 1, 1, 1, 1}
	upceanEndPattern      = []int{1, 1, 1, 1, 1, 1}
)

// upceanLPatterns contains the "odd" or "L" patterns for UPC/EAN digits.
var upceanLPatterns = [][]int{
	{3, 2, 1, 1}, // 0
	{2, 2, 2, 1}, // 1
	{2, 1, 2, 2}, // 2
	{1, 4, 1, 1}, // 3
	{1, 1, 3, 2}, // 4
	{1, 2, 3, 1}, // 5
	{1, 1, 1, 4}, // 6
	{1, 3, 1, 2}, // 7
	{1, 2, 1, 3}, // 8
	{3, 1, 1, 2}, // 9
}

// upceanLAndGPatterns holds L patterns at 0-9 and G patterns (reversed L
// patterns) at 10-19.
var upceanLAndGPatterns [][]int

func init() {
	upceanLAndGPatterns = make([][]int, 20)
	copy(upceanLAndGPatterns, upceanLPatterns)
	for i := 10; i < 20; i++ {
		widths := upceanLPatterns[i-10]
		reversed := make([]int, len(widths))
		for j := range widths {
			reversed[j] = widths[len(widths)-j-1]
		}
		upceanLAndGPatterns[i] = reversed
	}
}

// upceanMiddleDecoder decodes the digit portion of one UPC/EAN variant.
type upceanMiddleDecoder interface {
	// decodeMiddle decodes the digits between the guards, appending them to
	// result and returning the row offset where the end guard begins.
	decodeMiddle(row *bitutil.BitArray, startGuard Range, result *strings.Builder) (int, error)

	barcodeFormat() linescan.Format
}

// decodeUPCEANRow decodes a UPC/EAN barcode from a row using the given middle
// decoder.
func decodeUPCEANRow(rowNumber int, row *bitutil.BitArray, decoder upceanMiddleDecoder) (*linescan.Result, error) {
	startGuard, err := findUPCEANStartGuardPattern(row)
	if err != nil {
		return nil, err
	}

	var result strings.Builder
	endStart, err := decoder.decodeMiddle(row, startGuard, &result)
	if err != nil {
		return nil, err
	}

	format := decoder.barcodeFormat()
	endGuard, err := findUPCEANEndGuardPattern(row, endStart, format)
	if err != nil {
		return nil, err
	}

	// The quiet zone after the symbol must be at least as wide as the end
	// guard itself.
	quietEnd := endGuard.End + endGuard.Len()
	if quietEnd >= row.Size() || !row.IsRange(endGuard.End, quietEnd, false) {
		return nil, linescan.ErrNotFound
	}

	resultString := result.String()
	if len(resultString) < 8 {
		return nil, linescan.ErrFormat
	}

	checksumStr := resultString
	if format == linescan.FormatUPCE {
		checksumStr = ConvertUPCEtoUPCA(resultString)
	}
	if !CheckStandardUPCEANChecksum(checksumStr) {
		return nil, linescan.ErrChecksum
	}

	left := float64(startGuard.Begin+startGuard.End) / 2.0
	right := float64(endGuard.Begin+endGuard.End) / 2.0
	res := linescan.NewResult(
		resultString, nil,
		[]linescan.ResultPoint{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		format,
	)

	symbologyID := "0"
	if format == linescan.FormatEAN8 {
		symbologyID = "4"
	}
	res.PutMetadata(linescan.MetadataSymbologyIdentifier, "]E"+symbologyID)
	return res, nil
}

// CheckStandardUPCEANChecksum verifies the trailing UPC/EAN check digit.
func CheckStandardUPCEANChecksum(s string) bool {
	length := len(s)
	if length == 0 {
		return false
	}
	check := int(s[length-1] - '0')
	return GetStandardUPCEANChecksum(s[:length-1]) == check
}

// GetStandardUPCEANChecksum computes the mod-10 check digit for a string of
// digits without the check digit itself. Returns -1 on a non-digit input.
func GetStandardUPCEANChecksum(s string) int {
	length := len(s)
	sum := 0
	for i := length - 1; i >= 0; i -= 2 {
		d := int(s[i] - '0')
		if d < 0 || d > 9 {
			return -1
		}
		sum += d
	}
	sum *= 3
	for i := length - 2; i >= 0; i -= 2 {
		d := int(s[i] - '0')
		if d < 0 || d > 9 {
			return -1
		}
		sum += d
	}
	return (1000 - sum) % 10
}

func findUPCEANStartGuardPattern(row *bitutil.BitArray) (Range, error) {
	counters := make([]int, len(upceanStartEndPattern))
	rowOffset := row.GetNextSet(0)
	return FindPattern(row, rowOffset, row.Size(), counters, func(begin, end int, counters []int) bool {
		if PatternMatchVariance(counters, upceanStartEndPattern, upceanMaxIndividualVariance) >= upceanMaxAvgVariance {
			return false
		}
		// Require a quiet zone at least as wide as the guard.
		quietStart := begin - (end - begin)
		return quietStart >= 0 && row.IsRange(quietStart, begin, false)
	})
}

func findUPCEANEndGuardPattern(row *bitutil.BitArray, endStart int, format linescan.Format) (Range, error) {
	// UPC-E ends with a 6-element guard beginning on a space; the other
	// variants reuse the 3-element start guard beginning on a bar.
	if format == linescan.FormatUPCE {
		return findUPCEANGuardPattern(row, row.GetNextUnset(endStart), upceanEndPattern)
	}
	return findUPCEANGuardPattern(row, row.GetNextSet(endStart), upceanStartEndPattern)
}

func findUPCEANGuardPattern(row *bitutil.BitArray, rowOffset int, pattern []int) (Range, error) {
	counters := make([]int, len(pattern))
	return FindPattern(row, rowOffset, row.Size(), counters, func(begin, end int, counters []int) bool {
		return PatternMatchVariance(counters, pattern, upceanMaxIndividualVariance) < upceanMaxAvgVariance
	})
}

// findUPCEANMiddleGuardPattern locates the 5-element middle guard starting
// at or after rowOffset. The guard begins on a space.
func findUPCEANMiddleGuardPattern(row *bitutil.BitArray, rowOffset int) (Range, error) {
	return findUPCEANGuardPattern(row, row.GetNextUnset(rowOffset), upceanMiddlePattern)
}

// decodeUPCEANDigit decodes a single UPC/EAN digit at rowOffset against the
// given pattern set, returning the matched index and the runs it covered.
func decodeUPCEANDigit(row *bitutil.BitArray, counters []int, rowOffset int, patterns [][]int) (int, Range, error) {
	digitRange, err := RecordPattern(row, rowOffset, row.Size(), counters)
	if err != nil {
		return 0, Range{}, err
	}
	match, err := DecodeDigit(counters, patterns, upceanMaxAvgVariance, upceanMaxIndividualVariance, false)
	if err != nil {
		return 0, Range{}, err
	}
	return match, digitRange, nil
}
