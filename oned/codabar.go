package oned

import (
	"strings"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// Codabar encodes digits 0-9 and -$:/.+ with start/stop characters A-D.
// Each character is 4 bars and 3 spaces, of which one, two or three elements
// are wide.

const codabarAlphabet = "0123456789-$:/.+ABCD"

// Narrow/wide bitfields (MSB first over the 7 elements) per alphabet entry.
var codabarCharacterEncodings = []int{
	0x003, 0x006, 0x009, 0x060, 0x012, 0x042, 0x021, 0x024, 0x030, 0x048, // 0-9
	0x00C, 0x018, 0x045, 0x051, 0x054, 0x015, // -$:/.+
	0x01A, 0x029, 0x00B, 0x00E, // A-D
}

const codabarMinCharLength = 3 // start + at least 1 data + stop

// CodabarReader decodes Codabar barcodes.
type CodabarReader struct{}

// NewCodabarReader creates a new Codabar reader.
func NewCodabarReader() *CodabarReader {
	return &CodabarReader{}
}

// DecodeRow decodes a Codabar barcode from a single row.
func (r *CodabarReader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	counters := make([]int, 7)

	start, err := findCodabarStartPattern(row, counters)
	if err != nil {
		return nil, err
	}
	end := row.Size()

	var result strings.Builder
	result.WriteByte(decodeCodabarChar(counters, start.Begin))

	nextStart := row.GetNextSet(start.End)
	lastRange := start
	for nextStart < end {
		charRange, err := RecordPattern(row, nextStart, end, counters)
		if err != nil {
			return nil, err
		}
		view := ViewOfCounters(counters, charRange.Begin, true)
		decodedChar, err := DecodeNarrowWidePattern(view, codabarCharacterEncodings, codabarAlphabet)
		if err != nil {
			return nil, err
		}
		result.WriteByte(decodedChar)
		lastRange = charRange
		nextStart = row.GetNextSet(charRange.End)
		if isCodabarStartEnd(decodedChar) {
			break
		}
	}

	s := result.String()
	if len(s) < codabarMinCharLength {
		return nil, linescan.ErrNotFound
	}
	if !isCodabarStartEnd(s[0]) || !isCodabarStartEnd(s[len(s)-1]) {
		return nil, linescan.ErrNotFound
	}

	// Require half a character width of whitespace after the stop character.
	whiteSpaceAfterEnd := nextStart - lastRange.End
	if nextStart != end && whiteSpaceAfterEnd*2 < lastRange.Len() {
		return nil, linescan.ErrNotFound
	}

	// Strip start/stop characters.
	s = s[1 : len(s)-1]

	res := linescan.NewResult(
		s, nil,
		[]linescan.ResultPoint{
			{X: float64(start.Begin+start.End) / 2.0, Y: float64(rowNumber)},
			{X: float64(lastRange.Begin+lastRange.End) / 2.0, Y: float64(rowNumber)},
		},
		linescan.FormatCodabar,
	)
	res.PutMetadata(linescan.MetadataSymbologyIdentifier, "]F0")
	return res, nil
}

// decodeCodabarChar re-classifies counters already validated by the start
// pattern predicate.
func decodeCodabarChar(counters []int, begin int) byte {
	view := ViewOfCounters(counters, begin, true)
	ch, _ := DecodeNarrowWidePattern(view, codabarCharacterEncodings, codabarAlphabet)
	return ch
}

func findCodabarStartPattern(row *bitutil.BitArray, counters []int) (Range, error) {
	rowOffset := row.GetNextSet(0)
	return FindPattern(row, rowOffset, row.Size(), counters, func(begin, end int, counters []int) bool {
		view := ViewOfCounters(counters, begin, true)
		ch, err := DecodeNarrowWidePattern(view, codabarCharacterEncodings, codabarAlphabet)
		if err != nil || !isCodabarStartEnd(ch) {
			return false
		}
		// Require half a character width of quiet zone before the start.
		whiteStart := begin - (end-begin)/2
		if whiteStart < 0 {
			whiteStart = 0
		}
		return row.IsRange(whiteStart, begin, false)
	})
}

func isCodabarStartEnd(c byte) bool {
	return c == 'A' || c == 'B' || c == 'C' || c == 'D'
}

var _ RowReader = (*CodabarReader)(nil)
