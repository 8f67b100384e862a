package oned

import (
	"strings"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// EAN8Reader decodes EAN-8 barcodes.
type EAN8Reader struct{}

// NewEAN8Reader creates a new EAN-8 reader.
func NewEAN8Reader() *EAN8Reader {
	return &EAN8Reader{}
}

func (r *EAN8Reader) barcodeFormat() linescan.Format {
	return linescan.FormatEAN8
}

// DecodeRow decodes an EAN-8 barcode from a single row.
func (r *EAN8Reader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	return decodeUPCEANRow(rowNumber, row, r)
}

func (r *EAN8Reader) decodeMiddle(row *bitutil.BitArray, startGuard Range, result *strings.Builder) (int, error) {
	counters := make([]int, 4)
	end := row.Size()
	rowOffset := startGuard.End

	for x := 0; x < 4 && rowOffset < end; x++ {
		bestMatch, digitRange, err := decodeUPCEANDigit(row, counters, rowOffset, upceanLPatterns)
		if err != nil {
			return 0, err
		}
		result.WriteByte('0' + byte(bestMatch))
		rowOffset = digitRange.End
	}

	middleGuard, err := findUPCEANMiddleGuardPattern(row, rowOffset)
	if err != nil {
		return 0, err
	}
	rowOffset = middleGuard.End

	for x := 0; x < 4 && rowOffset < end; x++ {
		bestMatch, digitRange, err := decodeUPCEANDigit(row, counters, rowOffset, upceanLPatterns)
		if err != nil {
			return 0, err
		}
		result.WriteByte('0' + byte(bestMatch))
		rowOffset = digitRange.End
	}

	return rowOffset, nil
}

var _ RowReader = (*EAN8Reader)(nil)
var _ upceanMiddleDecoder = (*EAN8Reader)(nil)
