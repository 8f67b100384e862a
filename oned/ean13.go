package oned

import (
	"strings"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// EAN-13 encodes its first digit in the parity pattern of the six left-hand
// digits rather than in bars of its own. Odd (L) parity = 0, even (G) = 1.
var ean13FirstDigitEncodings = [10]int{
	0x00, 0x0B, 0x0D, 0x0E, 0x13, 0x19, 0x1C, 0x15, 0x16, 0x1A,
}

// EAN13Reader decodes EAN-13 barcodes.
type EAN13Reader struct{}

// NewEAN13Reader creates a new EAN-13 reader.
func NewEAN13Reader() *EAN13Reader {
	return &EAN13Reader{}
}

func (r *EAN13Reader) barcodeFormat() linescan.Format {
	return linescan.FormatEAN13
}

// DecodeRow decodes an EAN-13 barcode from a single row.
func (r *EAN13Reader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	return decodeUPCEANRow(rowNumber, row, r)
}

func (r *EAN13Reader) decodeMiddle(row *bitutil.BitArray, startGuard Range, result *strings.Builder) (int, error) {
	counters := make([]int, 4)
	end := row.Size()
	rowOffset := startGuard.End

	lgPatternFound := 0

	for x := 0; x < 6 && rowOffset < end; x++ {
		bestMatch, digitRange, err := decodeUPCEANDigit(row, counters, rowOffset, upceanLAndGPatterns)
		if err != nil {
			return 0, err
		}
		result.WriteByte('0' + byte(bestMatch%10))
		rowOffset = digitRange.End
		if bestMatch >= 10 {
			lgPatternFound |= 1 << uint(5-x)
		}
	}

	if err := determineEAN13FirstDigit(result, lgPatternFound); err != nil {
		return 0, err
	}

	middleGuard, err := findUPCEANMiddleGuardPattern(row, rowOffset)
	if err != nil {
		return 0, err
	}
	rowOffset = middleGuard.End

	for x := 0; x < 6 && rowOffset < end; x++ {
		bestMatch, digitRange, err := decodeUPCEANDigit(row, counters, rowOffset, upceanLPatterns)
		if err != nil {
			return 0, err
		}
		result.WriteByte('0' + byte(bestMatch))
		rowOffset = digitRange.End
	}

	return rowOffset, nil
}

func determineEAN13FirstDigit(result *strings.Builder, lgPatternFound int) error {
	for d := 0; d < 10; d++ {
		if lgPatternFound == ean13FirstDigitEncodings[d] {
			s := result.String()
			result.Reset()
			result.WriteByte('0' + byte(d))
			result.WriteString(s)
			return nil
		}
	}
	return linescan.ErrNotFound
}

var _ RowReader = (*EAN13Reader)(nil)
var _ upceanMiddleDecoder = (*EAN13Reader)(nil)
