// Package linescan decodes one-dimensional (linear) barcodes from single
// rows of black/white pixel data.
package linescan

import "time"

// Format represents a linear barcode format.
type Format int

const (
	FormatCode128 Format = iota
	FormatCode39
	FormatCode93
	FormatCodabar
	FormatEAN13
	FormatEAN8
	FormatUPCA
	FormatUPCE
	FormatITF
	FormatRSS14
)

// String returns the name of the barcode format.
func (f Format) String() string {
	switch f {
	case FormatCode128:
		return "CODE_128"
	case FormatCode39:
		return "CODE_39"
	case FormatCode93:
		return "CODE_93"
	case FormatCodabar:
		return "CODABAR"
	case FormatEAN13:
		return "EAN_13"
	case FormatEAN8:
		return "EAN_8"
	case FormatUPCA:
		return "UPC_A"
	case FormatUPCE:
		return "UPC_E"
	case FormatITF:
		return "ITF"
	case FormatRSS14:
		return "RSS_14"
	default:
		return "UNKNOWN"
	}
}

// ParseFormat returns the format named by s, matching the names produced by
// String.
func ParseFormat(s string) (Format, bool) {
	for f := FormatCode128; f <= FormatRSS14; f++ {
		if f.String() == s {
			return f, true
		}
	}
	return 0, false
}

// ResultMetadataKey identifies a type of metadata about a barcode result.
type ResultMetadataKey int

const (
	MetadataOther ResultMetadataKey = iota
	MetadataOrientation
	MetadataSymbologyIdentifier
)

// ResultPoint represents a point of interest in a scanned row.
type ResultPoint struct {
	X, Y float64
}

// Result encapsulates the result of decoding a barcode.
type Result struct {
	Text      string
	RawBytes  []byte
	Points    []ResultPoint
	Format    Format
	Metadata  map[ResultMetadataKey]interface{}
	Timestamp time.Time
}

// NewResult creates a new Result with the given text, format, and points.
func NewResult(text string, rawBytes []byte, points []ResultPoint, format Format) *Result {
	return &Result{
		Text:      text,
		RawBytes:  rawBytes,
		Points:    points,
		Format:    format,
		Metadata:  make(map[ResultMetadataKey]interface{}),
		Timestamp: time.Now(),
	}
}

// PutMetadata adds a metadata key/value pair.
func (r *Result) PutMetadata(key ResultMetadataKey, value interface{}) {
	r.Metadata[key] = value
}
