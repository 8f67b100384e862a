package oned

import (
	"strings"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// Code 39 encodes each character as 5 bars and 4 spaces, exactly three of
// which are wide. The asterisk is the start and stop character.

const code39Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-. $/+%*"

// Narrow/wide bitfields (MSB first over the 9 elements) per alphabet entry;
// the final entry is the asterisk.
var code39CharacterEncodings = []int{
	0x034, 0x121, 0x061, 0x160, 0x031, 0x130, 0x070, 0x025, 0x124, 0x064, // 0-9
	0x109, 0x049, 0x148, 0x019, 0x118, 0x058, 0x00D, 0x10C, 0x04C, 0x01C, // A-J
	0x103, 0x043, 0x142, 0x013, 0x112, 0x052, 0x007, 0x106, 0x046, 0x016, // K-T
	0x181, 0x0C1, 0x1C0, 0x091, 0x190, 0x0D0, 0x085, 0x184, 0x0C4, 0x0A8, // U-$
	0x0A2, 0x08A, 0x02A, // /-%
	0x094, // *
}

const code39AsteriskEncoding = 0x094

// Code39Reader decodes Code 39 barcodes.
type Code39Reader struct {
	usingCheckDigit bool
	extendedMode    bool
}

// NewCode39Reader creates a new Code 39 reader.
func NewCode39Reader() *Code39Reader {
	return &Code39Reader{}
}

// NewCode39ReaderWith creates a Code 39 reader that optionally validates a
// mod-43 check digit and decodes extended-mode text.
func NewCode39ReaderWith(usingCheckDigit, extendedMode bool) *Code39Reader {
	return &Code39Reader{usingCheckDigit: usingCheckDigit, extendedMode: extendedMode}
}

// DecodeRow decodes a Code 39 barcode from a single row.
func (r *Code39Reader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	counters := make([]int, 9)

	start, err := findCode39AsteriskPattern(row, counters)
	if err != nil {
		return nil, err
	}
	nextStart := row.GetNextSet(start.End)
	end := row.Size()

	var result strings.Builder
	var lastRange Range
	for {
		charRange, err := RecordPattern(row, nextStart, end, counters)
		if err != nil {
			return nil, err
		}
		view := ViewOfCounters(counters, charRange.Begin, true)
		decodedChar, err := DecodeNarrowWidePattern(view, code39CharacterEncodings, code39Alphabet)
		if err != nil {
			return nil, err
		}
		result.WriteByte(decodedChar)
		lastRange = charRange
		nextStart = row.GetNextSet(charRange.End)
		if decodedChar == '*' {
			break
		}
	}

	// Remove the trailing asterisk.
	s := result.String()
	s = s[:len(s)-1]

	// Require half a character width of whitespace after the stop character.
	whiteSpaceAfterEnd := nextStart - lastRange.End
	if nextStart != end && whiteSpaceAfterEnd*2 < lastRange.Len() {
		return nil, linescan.ErrNotFound
	}

	if r.usingCheckDigit {
		max := len(s) - 1
		if max < 1 {
			return nil, linescan.ErrNotFound
		}
		total := 0
		for i := 0; i < max; i++ {
			total += strings.IndexByte(code39Alphabet, s[i])
		}
		if s[max] != code39Alphabet[total%43] {
			return nil, linescan.ErrChecksum
		}
		s = s[:max]
	}

	if len(s) == 0 {
		return nil, linescan.ErrNotFound
	}

	if r.extendedMode {
		s, err = decodeCode39Extended(s)
		if err != nil {
			return nil, err
		}
	}

	left := float64(start.Begin+start.End) / 2.0
	right := float64(lastRange.Begin) + float64(lastRange.Len())/2.0
	res := linescan.NewResult(
		s, nil,
		[]linescan.ResultPoint{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		linescan.FormatCode39,
	)
	res.PutMetadata(linescan.MetadataSymbologyIdentifier, "]A0")
	return res, nil
}

func findCode39AsteriskPattern(row *bitutil.BitArray, counters []int) (Range, error) {
	rowOffset := row.GetNextSet(0)
	return FindPattern(row, rowOffset, row.Size(), counters, func(begin, end int, counters []int) bool {
		view := ViewOfCounters(counters, begin, true)
		pattern, ok := ToNarrowWidePattern(view)
		if !ok || pattern != code39AsteriskEncoding {
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

func decodeCode39Extended(encoded string) (string, error) {
	var decoded strings.Builder
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c == '+' || c == '$' || c == '%' || c == '/' {
			if i+1 >= len(encoded) {
				return "", linescan.ErrFormat
			}
			next := encoded[i+1]
			var decodedChar byte
			switch c {
			case '+':
				if next >= 'A' && next <= 'Z' {
					decodedChar = next + 32
				} else {
					return "", linescan.ErrFormat
				}
			case '$':
				if next >= 'A' && next <= 'Z' {
					decodedChar = next - 64
				} else {
					return "", linescan.ErrFormat
				}
			case '%':
				if next >= 'A' && next <= 'E' {
					decodedChar = next - 38
				} else if next >= 'F' && next <= 'J' {
					decodedChar = next - 11
				} else if next >= 'K' && next <= 'O' {
					decodedChar = next + 16
				} else if next >= 'P' && next <= 'T' {
					decodedChar = next + 43
				} else if next == 'U' {
					decodedChar = 0
				} else if next == 'V' {
					decodedChar = '@'
				} else if next == 'W' {
					decodedChar = '`'
				} else if next == 'X' || next == 'Y' || next == 'Z' {
					decodedChar = 127
				} else {
					return "", linescan.ErrFormat
				}
			case '/':
				if next >= 'A' && next <= 'O' {
					decodedChar = next - 32
				} else if next == 'Z' {
					decodedChar = ':'
				} else {
					return "", linescan.ErrFormat
				}
			}
			decoded.WriteByte(decodedChar)
			i++
		} else {
			decoded.WriteByte(c)
		}
	}
	return decoded.String(), nil
}

var _ RowReader = (*Code39Reader)(nil)
