package oned

import (
	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
)

// MultiFormatReader attempts to decode 1D barcodes by trying multiple
// format-specific readers in sequence. The caller-owned state carries one
// slot per reader so stacked symbologies can accumulate across successive
// rows fed through the same state.
type MultiFormatReader struct {
	readers []RowReader
	opts    *linescan.DecodeOptions
}

// multiFormatState fans the caller's state out into one slot per reader.
type multiFormatState struct {
	slots []DecodingState
}

// NewMultiFormatReader creates a multi-format reader configured by opts.
func NewMultiFormatReader(opts *linescan.DecodeOptions) *MultiFormatReader {
	var readers []RowReader

	if opts != nil && len(opts.PossibleFormats) > 0 {
		formats := make(map[linescan.Format]bool)
		for _, f := range opts.PossibleFormats {
			formats[f] = true
		}
		if formats[linescan.FormatEAN13] || formats[linescan.FormatUPCA] ||
			formats[linescan.FormatEAN8] || formats[linescan.FormatUPCE] {
			readers = append(readers, NewEAN13Reader(), NewEAN8Reader(), NewUPCAReader(), NewUPCEReader())
		}
		if formats[linescan.FormatCode39] {
			readers = append(readers, NewCode39ReaderWith(opts.AssumeCode39CheckDigit, false))
		}
		if formats[linescan.FormatCode93] {
			readers = append(readers, NewCode93Reader())
		}
		if formats[linescan.FormatCode128] {
			readers = append(readers, NewCode128ReaderWith(opts.AssumeGS1))
		}
		if formats[linescan.FormatITF] {
			readers = append(readers, NewITFReaderWithLengths(opts.AllowedLengths))
		}
		if formats[linescan.FormatCodabar] {
			readers = append(readers, NewCodabarReader())
		}
		if formats[linescan.FormatRSS14] {
			readers = append(readers, NewRSS14Reader())
		}
	}

	if len(readers) == 0 {
		readers = []RowReader{
			NewEAN13Reader(),
			NewEAN8Reader(),
			NewUPCAReader(),
			NewUPCEReader(),
			NewCode39Reader(),
			NewCode93Reader(),
			NewCode128Reader(),
			NewITFReader(),
			NewCodabarReader(),
			NewRSS14Reader(),
		}
	}

	return &MultiFormatReader{
		readers: readers,
		opts:    opts,
	}
}

// DecodeRow tries each reader in sequence until one succeeds.
func (r *MultiFormatReader) DecodeRow(rowNumber int, row *bitutil.BitArray, state *DecodingState) (*linescan.Result, error) {
	s, ok := (*state).(*multiFormatState)
	if !ok {
		s = &multiFormatState{slots: make([]DecodingState, len(r.readers))}
		*state = s
	}
	for i, reader := range r.readers {
		result, err := reader.DecodeRow(rowNumber, row, &s.slots[i])
		if err == nil {
			return result, nil
		}
	}
	return nil, linescan.ErrNotFound
}

// Options returns the options the reader was configured with.
func (r *MultiFormatReader) Options() *linescan.DecodeOptions {
	return r.opts
}

var _ RowReader = (*MultiFormatReader)(nil)
