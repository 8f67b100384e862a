package linescan

import "errors"

var (
	// ErrNotFound is returned when no plausible barcode pattern exists in the
	// scanned row.
	ErrNotFound = errors.New("barcode not found")

	// ErrChecksum is returned when a barcode was structurally recognized but
	// its checksum does not match.
	ErrChecksum = errors.New("checksum error")

	// ErrFormat is returned when a candidate barcode violates format-specific
	// constraints beyond raw pattern matching.
	ErrFormat = errors.New("format error")
)
