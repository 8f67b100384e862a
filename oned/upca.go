package oned

import (
	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// UPCAReader decodes UPC-A barcodes. A UPC-A symbol is an EAN-13 symbol whose
// implicit first digit is 0, so decoding delegates to EAN-13 and strips the
// leading zero.
type UPCAReader struct {
	ean13 *EAN13Reader
}

// NewUPCAReader creates a new UPC-A reader.
func NewUPCAReader() *UPCAReader {
	return &UPCAReader{ean13: NewEAN13Reader()}
}

// DecodeRow decodes a UPC-A barcode from a single row.
func (r *UPCAReader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	result, err := r.ean13.DecodeRow(rowNumber, row, state)
	if err != nil {
		return nil, err
	}
	return maybeReturnUPCAResult(result)
}

func maybeReturnUPCAResult(result *linescan.Result) (*linescan.Result, error) {
	text := result.Text
	if len(text) == 0 || text[0] != '0' {
		return nil, linescan.ErrFormat
	}
	upcaResult := linescan.NewResult(
		text[1:], nil,
		result.Points,
		linescan.FormatUPCA,
	)
	for k, v := range result.Metadata {
		upcaResult.PutMetadata(k, v)
	}
	return upcaResult, nil
}

var _ RowReader = (*UPCAReader)(nil)
