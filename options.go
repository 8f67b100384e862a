package linescan

// DecodeOptions configures barcode decoding behavior.
type DecodeOptions struct {
	// PossibleFormats limits which formats to look for.
	PossibleFormats []Format

	// AllowedLengths restricts the set of valid barcode lengths for formats
	// without intrinsic length information (ITF).
	AllowedLengths []int

	// AssumeCode39CheckDigit assumes Code 39 includes a check digit.
	AssumeCode39CheckDigit bool

	// AssumeGS1 assumes data is GS1 formatted.
	AssumeGS1 bool
}
