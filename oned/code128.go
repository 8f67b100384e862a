package oned

import (
	"fmt"
	"strings"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// Code 128 encodes each symbol as 3 bars and 3 spaces spanning 11 modules.
// The stop character is followed by a 2-module termination bar, which is
// matched separately from the 6-element stop pattern.

const (
	code128MaxAvgVariance        = 0.25
	code128MaxIndividualVariance = 0.7

	code128Shift  = 98
	code128CodeC  = 99
	code128CodeB  = 100
	code128CodeA  = 101
	code128FNC1   = 102
	code128FNC2   = 97
	code128FNC3   = 96
	code128FNC4A  = 101
	code128FNC4B  = 100
	code128StartA = 103
	code128StartB = 104
	code128StartC = 105
	code128Stop   = 106
)

// code128Patterns contains the element widths for codes 0-106.
var code128Patterns = [][]int{
	{2, 1, 2, 2, 2, 2}, // 0
	{2, 2, 2, 1, 2, 2},
	{2, 2, 2, 2, 2, 1},
	{1, 2, 1, 2, 2, 3},
	{1, 2, 1, 3, 2, 2},
	{1, 3, 1, 2, 2, 2}, // 5
	{1, 2, 2, 2, 1, 3},
	{1, 2, 2, 3, 1, 2},
	{1, 3, 2, 2, 1, 2},
	{2, 2, 1, 2, 1, 3},
	{2, 2, 1, 3, 1, 2}, // 10
	{2, 3, 1, 2, 1, 2},
	{1, 1, 2, 2, 3, 2},
	{1, 2, 2, 1, 3, 2},
	{1, 2, 2, 2, 3, 1},
	{1, 1, 3, 2, 2, 2}, // 15
	{1, 2, 3, 1, 2, 2},
	{1, 2, 3, 2, 2, 1},
	{2, 2, 3, 2, 1, 1},
	{2, 2, 1, 1, 3, 2},
	{2, 2, 1, 2, 3, 1}, // 20
	{2, 1, 3, 2, 1, 2},
	{2, 2, 3, 1, 1, 2},
	{3, 1, 2, 1, 3, 1},
	{3, 1, 1, 2, 2, 2},
	{3, 2, 1, 1, 2, 2}, // 25
	{3, 2, 1, 2, 2, 1},
	{3, 1, 2, 2, 1, 2},
	{3, 2, 2, 1, 1, 2},
	{3, 2, 2, 2, 1, 1},
	{2, 1, 2, 1, 2, 3}, // 30
	{2, 1, 2, 3, 2, 1},
	{2, 3, 2, 1, 2, 1},
	{1, 1, 1, 3, 2, 3},
	{1, 3, 1, 1, 2, 3},
	{1, 3, 1, 3, 2, 1}, // 35
	{1, 1, 2, 3, 1, 3},
	{1, 3, 2, 1, 1, 3},
	{1, 3, 2, 3, 1, 1},
	{2, 1, 1, 3, 1, 3},
	{2, 3, 1, 1, 1, 3}, // 40
	{2, 3, 1, 3, 1, 1},
	{1, 1, 2, 1, 3, 3},
	{1, 1, 2, 3, 3, 1},
	{1, 3, 2, 1, 3, 1},
	{1, 1, 3, 1, 2, 3}, // 45
	{1, 1, 3, 3, 2, 1},
	{1, 3, 3, 1, 2, 1},
	{3, 1, 3, 1, 2, 1},
	{2, 1, 1, 3, 3, 1},
	{2, 3, 1, 1, 3, 1}, // 50
	{2, 1, 3, 1, 1, 3},
	{2, 1, 3, 3, 1, 1},
	{2, 1, 3, 1, 3, 1},
	{3, 1, 1, 1, 2, 3},
	{3, 1, 1, 3, 2, 1}, // 55
	{3, 3, 1, 1, 2, 1},
	{3, 1, 2, 1, 1, 3},
	{3, 1, 2, 3, 1, 1},
	{3, 3, 2, 1, 1, 1},
	{3, 1, 4, 1, 1, 1}, // 60
	{2, 2, 1, 4, 1, 1},
	{4, 3, 1, 1, 1, 1},
	{1, 1, 1, 2, 2, 4},
	{1, 1, 1, 4, 2, 2},
	{1, 2, 1, 1, 2, 4}, // 65
	{1, 2, 1, 4, 2, 1},
	{1, 4, 1, 1, 2, 2},
	{1, 4, 1, 2, 2, 1},
	{1, 1, 2, 2, 1, 4},
	{1, 1, 2, 4, 1, 2}, // 70
	{1, 2, 2, 1, 1, 4},
	{1, 2, 2, 4, 1, 1},
	{1, 4, 2, 1, 1, 2},
	{1, 4, 2, 2, 1, 1},
	{2, 4, 1, 2, 1, 1}, // 75
	{2, 2, 1, 1, 1, 4},
	{4, 1, 3, 1, 1, 1},
	{2, 4, 1, 1, 1, 2},
	{1, 3, 4, 1, 1, 1},
	{1, 1, 1, 2, 4, 2}, // 80
	{1, 2, 1, 1, 4, 2},
	{1, 2, 1, 2, 4, 1},
	{1, 1, 4, 2, 1, 2},
	{1, 2, 4, 1, 1, 2},
	{1, 2, 4, 2, 1, 1}, // 85
	{4, 1, 1, 2, 1, 2},
	{4, 2, 1, 1, 1, 2},
	{4, 2, 1, 2, 1, 1},
	{2, 1, 2, 1, 4, 1},
	{2, 1, 4, 1, 2, 1}, // 90
	{4, 1, 2, 1, 2, 1},
	{1, 1, 1, 1, 4, 3},
	{1, 1, 1, 3, 4, 1},
	{1, 3, 1, 1, 4, 1},
	{1, 1, 4, 1, 1, 3}, // 95
	{1, 1, 4, 3, 1, 1},
	{4, 1, 1, 1, 1, 3},
	{4, 1, 1, 3, 1, 1},
	{1, 1, 3, 1, 4, 1},
	{1, 1, 4, 1, 3, 1}, // 100
	{3, 1, 1, 1, 4, 1},
	{4, 1, 1, 1, 3, 1},
	{2, 1, 1, 4, 1, 2}, // START_A
	{2, 1, 1, 2, 1, 4}, // START_B
	{2, 1, 1, 2, 3, 2}, // START_C
	{2, 3, 3, 1, 1, 1}, // STOP (termination bar handled separately)
}

// Code128Reader decodes Code 128 barcodes.
type Code128Reader struct {
	convertFNC1 bool
}

// NewCode128Reader creates a new Code 128 reader.
func NewCode128Reader() *Code128Reader {
	return &Code128Reader{}
}

// NewCode128ReaderWith creates a Code 128 reader that, when convertFNC1 is
// set, renders a leading FNC1 as the GS1 AIM prefix and later FNC1s as GS
// separators.
func NewCode128ReaderWith(convertFNC1 bool) *Code128Reader {
	return &Code128Reader{convertFNC1: convertFNC1}
}

// DecodeRow decodes a Code 128 barcode from a single row.
func (r *Code128Reader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	symbologyModifier := 0

	startRange, startCode, err := findCode128StartPattern(row)
	if err != nil {
		return nil, err
	}

	rawCodes := []byte{byte(startCode)}

	var codeSet int
	switch startCode {
	case code128StartA:
		codeSet = code128CodeA
	case code128StartB:
		codeSet = code128CodeB
	case code128StartC:
		codeSet = code128CodeC
	default:
		return nil, linescan.ErrFormat
	}

	done := false
	isNextShifted := false
	var result strings.Builder
	lastRange := startRange
	nextStart := startRange.End
	end := row.Size()
	counters := make([]int, 6)

	lastCode := 0
	code := 0
	checksumTotal := startCode
	multiplier := 0
	lastCharacterWasPrintable := true
	upperMode := false
	shiftUpperMode := false

	for !done {
		unshift := isNextShifted
		isNextShifted = false
		lastCode = code

		var symbolRange Range
		symbolRange, code, err = decodeCode128Symbol(row, nextStart, end, counters)
		if err != nil {
			return nil, err
		}
		rawCodes = append(rawCodes, byte(code))

		if code != code128Stop {
			lastCharacterWasPrintable = true
			multiplier++
			checksumTotal += multiplier * code
		}

		lastRange = symbolRange
		nextStart = symbolRange.End

		switch code {
		case code128StartA, code128StartB, code128StartC:
			return nil, linescan.ErrFormat
		}

		switch codeSet {
		case code128CodeA:
			if code < 64 {
				ch := byte(' ' + code)
				if shiftUpperMode == upperMode {
					result.WriteByte(ch)
				} else {
					result.WriteByte(ch + 128)
				}
				shiftUpperMode = false
			} else if code < 96 {
				ch := byte(code - 64)
				if shiftUpperMode == upperMode {
					result.WriteByte(ch)
				} else {
					result.WriteByte(ch + 128)
				}
				shiftUpperMode = false
			} else {
				if code != code128Stop {
					lastCharacterWasPrintable = false
				}
				switch code {
				case code128FNC1:
					symbologyModifier = r.applyFNC1(&result, symbologyModifier)
				case code128FNC2:
					symbologyModifier = 4
				case code128FNC3:
					// reader programming, no text output
				case code128FNC4A:
					if !upperMode && shiftUpperMode {
						upperMode = true
						shiftUpperMode = false
					} else if upperMode && shiftUpperMode {
						upperMode = false
						shiftUpperMode = false
					} else {
						shiftUpperMode = true
					}
				case code128Shift:
					isNextShifted = true
					codeSet = code128CodeB
				case code128CodeB:
					codeSet = code128CodeB
				case code128CodeC:
					codeSet = code128CodeC
				case code128Stop:
					done = true
				}
			}
		case code128CodeB:
			if code < 96 {
				ch := byte(' ' + code)
				if shiftUpperMode == upperMode {
					result.WriteByte(ch)
				} else {
					result.WriteByte(ch + 128)
				}
				shiftUpperMode = false
			} else {
				if code != code128Stop {
					lastCharacterWasPrintable = false
				}
				switch code {
				case code128FNC1:
					symbologyModifier = r.applyFNC1(&result, symbologyModifier)
				case code128FNC2:
					symbologyModifier = 4
				case code128FNC3:
					// reader programming, no text output
				case code128FNC4B:
					if !upperMode && shiftUpperMode {
						upperMode = true
						shiftUpperMode = false
					} else if upperMode && shiftUpperMode {
						upperMode = false
						shiftUpperMode = false
					} else {
						shiftUpperMode = true
					}
				case code128Shift:
					isNextShifted = true
					codeSet = code128CodeA
				case code128CodeA:
					codeSet = code128CodeA
				case code128CodeC:
					codeSet = code128CodeC
				case code128Stop:
					done = true
				}
			}
		case code128CodeC:
			if code < 100 {
				if code < 10 {
					result.WriteByte('0')
				}
				result.WriteString(fmt.Sprintf("%d", code))
			} else {
				if code != code128Stop {
					lastCharacterWasPrintable = false
				}
				switch code {
				case code128FNC1:
					symbologyModifier = r.applyFNC1(&result, symbologyModifier)
				case code128CodeA:
					codeSet = code128CodeA
				case code128CodeB:
					codeSet = code128CodeB
				case code128Stop:
					done = true
				}
			}
		}

		if unshift {
			if codeSet == code128CodeA {
				codeSet = code128CodeB
			} else {
				codeSet = code128CodeA
			}
		}
	}

	// The stop pattern ends in a space; consume the 2-module termination bar.
	if nextStart >= end || !row.Get(nextStart) {
		return nil, linescan.ErrNotFound
	}
	nextStart = row.GetNextUnset(nextStart)

	// Check for whitespace after the termination bar.
	endCheck := nextStart + lastRange.Len()/2
	if endCheck > end {
		endCheck = end
	}
	if !row.IsRange(nextStart, endCheck, false) {
		return nil, linescan.ErrNotFound
	}

	checksumTotal -= multiplier * lastCode
	if checksumTotal%103 != lastCode {
		return nil, linescan.ErrChecksum
	}

	resultLength := result.Len()
	if resultLength == 0 {
		return nil, linescan.ErrNotFound
	}

	// Remove the check digit from the text.
	s := result.String()
	if lastCharacterWasPrintable {
		if codeSet == code128CodeC {
			if len(s) >= 2 {
				s = s[:len(s)-2]
			}
		} else if len(s) >= 1 {
			s = s[:len(s)-1]
		}
	}

	left := float64(startRange.Begin+startRange.End) / 2.0
	right := float64(lastRange.Begin) + float64(lastRange.Len())/2.0

	res := linescan.NewResult(
		s, rawCodes,
		[]linescan.ResultPoint{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		linescan.FormatCode128,
	)
	res.PutMetadata(linescan.MetadataSymbologyIdentifier, fmt.Sprintf("]C%d", symbologyModifier))
	return res, nil
}

func (r *Code128Reader) applyFNC1(result *strings.Builder, symbologyModifier int) int {
	switch result.Len() {
	case 0:
		symbologyModifier = 1
	case 1:
		symbologyModifier = 2
	}
	if r.convertFNC1 {
		if result.Len() == 0 {
			result.WriteString("]C1")
		} else {
			result.WriteByte(29) // GS
		}
	}
	return symbologyModifier
}

func findCode128StartPattern(row *bitutil.BitArray) (Range, int, error) {
	counters := make([]int, 6)
	startCode := -1
	rowOffset := row.GetNextSet(0)
	r, err := FindPattern(row, rowOffset, row.Size(), counters, func(begin, end int, counters []int) bool {
		match, err := DecodeDigit(counters, code128Patterns[code128StartA:code128StartC+1],
			code128MaxAvgVariance, code128MaxIndividualVariance, false)
		if err != nil {
			return false
		}
		// Require half a character width of quiet zone before the start.
		whiteStart := begin - (end-begin)/2
		if whiteStart < 0 {
			whiteStart = 0
		}
		if !row.IsRange(whiteStart, begin, false) {
			return false
		}
		startCode = code128StartA + match
		return true
	})
	if err != nil {
		return Range{}, 0, err
	}
	return r, startCode, nil
}

func decodeCode128Symbol(row *bitutil.BitArray, rowOffset, end int, counters []int) (Range, int, error) {
	symbolRange, err := RecordPattern(row, rowOffset, end, counters)
	if err != nil {
		return Range{}, -1, err
	}
	match, err := DecodeDigit(counters, code128Patterns,
		code128MaxAvgVariance, code128MaxIndividualVariance, false)
	if err != nil {
		return Range{}, -1, err
	}
	return symbolRange, match, nil
}

var _ RowReader = (*Code128Reader)(nil)
