package oned

import (
	"math"
	"strings"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// Code 93 encodes each character as 3 bars and 3 spaces spanning 9 modules,
// with element widths of 1-4 modules. The symbol carries two mod-47 check
// characters (C and K) and terminates with an asterisk plus one bar.

const code93Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-. $/+%abcd*"

// Module bit patterns (9 bits, MSB = first module) per alphabet entry.
var code93CharacterEncodings = []int{
	0x114, 0x148, 0x144, 0x142, 0x128, 0x124, 0x122, 0x150, 0x112, 0x10A, // 0-9
	0x1A8, 0x1A4, 0x1A2, 0x194, 0x192, 0x18A, 0x168, 0x164, 0x162, 0x134, // A-J
	0x11A, 0x158, 0x14C, 0x146, 0x12C, 0x116, 0x1B4, 0x1B2, 0x1AC, 0x1A6, // K-T
	0x196, 0x19A, 0x16C, 0x166, 0x136, 0x13A, // U-Z
	0x12E, 0x1D4, 0x1D2, 0x1CA, 0x16E, 0x176, 0x1AE, // - . space $ / + %
	0x126, 0x1DA, 0x1D6, 0x132, 0x15E, // a b c d *
}

var code93AsteriskEncoding = code93CharacterEncodings[47]

// Code93Reader decodes Code 93 barcodes.
type Code93Reader struct{}

// NewCode93Reader creates a new Code 93 reader.
func NewCode93Reader() *Code93Reader {
	return &Code93Reader{}
}

// DecodeRow decodes a Code 93 barcode from a single row.
func (r *Code93Reader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	counters := make([]int, 6)

	start, err := findCode93AsteriskPattern(row, counters)
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
		pattern := code93ToModulePattern(counters)
		if pattern < 0 {
			return nil, linescan.ErrNotFound
		}
		decodedChar, err := code93PatternToChar(pattern)
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
	s := result.String()
	s = s[:len(s)-1] // remove trailing asterisk

	// The symbol must terminate with at least one more black module.
	if nextStart == end || !row.Get(nextStart) {
		return nil, linescan.ErrNotFound
	}

	if len(s) < 2 {
		return nil, linescan.ErrNotFound
	}

	if err := code93CheckChecksums(s); err != nil {
		return nil, err
	}
	s = s[:len(s)-2] // remove checksum characters

	decoded, err := code93DecodeExtended(s)
	if err != nil {
		return nil, err
	}

	left := float64(start.Begin+start.End) / 2.0
	right := float64(lastRange.Begin) + float64(lastRange.Len())/2.0
	res := linescan.NewResult(
		decoded, nil,
		[]linescan.ResultPoint{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		linescan.FormatCode93,
	)
	res.PutMetadata(linescan.MetadataSymbologyIdentifier, "]G0")
	return res, nil
}

func findCode93AsteriskPattern(row *bitutil.BitArray, counters []int) (Range, error) {
	rowOffset := row.GetNextSet(0)
	return FindPattern(row, rowOffset, row.Size(), counters, func(begin, end int, counters []int) bool {
		return code93ToModulePattern(counters) == code93AsteriskEncoding
	})
}

// code93ToModulePattern normalizes the six run widths to 9 modules and packs
// them into a bit pattern, or returns -1 when any element rounds outside the
// 1-4 module range.
func code93ToModulePattern(counters []int) int {
	sum := 0
	for _, c := range counters {
		sum += c
	}
	pattern := 0
	for i, c := range counters {
		scaled := int(math.Round(float64(c) * 9.0 / float64(sum)))
		if scaled < 1 || scaled > 4 {
			return -1
		}
		if (i & 0x01) == 0 {
			for j := 0; j < scaled; j++ {
				pattern = (pattern << 1) | 0x01
			}
		} else {
			pattern <<= uint(scaled)
		}
	}
	return pattern
}

func code93PatternToChar(pattern int) (byte, error) {
	for i, enc := range code93CharacterEncodings {
		if enc == pattern {
			return code93Alphabet[i], nil
		}
	}
	return 0, linescan.ErrNotFound
}

func code93DecodeExtended(encoded string) (string, error) {
	length := len(encoded)
	var decoded strings.Builder
	for i := 0; i < length; i++ {
		c := encoded[i]
		if c >= 'a' && c <= 'd' {
			if i >= length-1 {
				return "", linescan.ErrFormat
			}
			next := encoded[i+1]
			var decodedChar byte
			switch c {
			case 'd':
				if next >= 'A' && next <= 'Z' {
					decodedChar = next + 32
				} else {
					return "", linescan.ErrFormat
				}
			case 'a':
				if next >= 'A' && next <= 'Z' {
					decodedChar = next - 64
				} else {
					return "", linescan.ErrFormat
				}
			case 'b':
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
				} else if next >= 'X' && next <= 'Z' {
					decodedChar = 127
				} else {
					return "", linescan.ErrFormat
				}
			case 'c':
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

func code93CheckChecksums(result string) error {
	length := len(result)
	if err := code93CheckOneChecksum(result, length-2, 20); err != nil {
		return err
	}
	return code93CheckOneChecksum(result, length-1, 15)
}

func code93CheckOneChecksum(result string, checkPosition, weightMax int) error {
	weight := 1
	total := 0
	for i := checkPosition - 1; i >= 0; i-- {
		total += weight * strings.IndexByte(code93Alphabet, result[i])
		weight++
		if weight > weightMax {
			weight = 1
		}
	}
	if result[checkPosition] != code93Alphabet[total%47] {
		return linescan.ErrChecksum
	}
	return nil
}

var _ RowReader = (*Code93Reader)(nil)
