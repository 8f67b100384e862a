// Command rowscan decodes linear barcodes from textual row scans.
//
// A row scan is a line of text describing one horizontal slice of a barcode,
// one character per pixel: '1', 'X' or '#' for a black pixel, '0', '.' or
// space for a white one. Blank lines and lines starting with '/' are
// ignored. All rows of a file are fed to the same decoder in order, so
// stacked symbologies accumulate across rows.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/linescan/linescan"
	"github.com/linescan/linescan/bitutil"
	"github.com/linescan/linescan/oned"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		verbose    bool
		formats    []string
		assumeGS1  bool
		checkDigit bool
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
	})

	cmd := &cobra.Command{
		Use:           "rowscan [file...]",
		Short:         "Decode linear barcodes from textual row scans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOptions(formats, assumeGS1, checkDigit)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return scanStream(logger, opts, "<stdin>", os.Stdin)
			}

			failed := false
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					logger.Error("open failed", "file", path, "err", err)
					failed = true
					continue
				}
				err = scanStream(logger, opts, path, f)
				f.Close()
				if err != nil {
					logger.Error("no barcode found", "file", path)
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("some files could not be decoded")
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "restrict to the given formats (e.g. CODE_128,EAN_13)")
	cmd.Flags().BoolVar(&assumeGS1, "gs1", false, "treat Code 128 FNC1 as a GS1 AI separator")
	cmd.Flags().BoolVar(&checkDigit, "code39-check-digit", false, "require and verify a Code 39 check digit")

	cmd.SetErr(os.Stderr)
	return cmd
}

func buildOptions(formatNames []string, assumeGS1, checkDigit bool) (*linescan.DecodeOptions, error) {
	opts := &linescan.DecodeOptions{
		AssumeGS1:              assumeGS1,
		AssumeCode39CheckDigit: checkDigit,
	}
	for _, name := range formatNames {
		f, ok := linescan.ParseFormat(strings.ToUpper(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("unknown format %q", name)
		}
		opts.PossibleFormats = append(opts.PossibleFormats, f)
	}
	return opts, nil
}

func scanStream(logger *log.Logger, opts *linescan.DecodeOptions, name string, in io.Reader) error {
	reader := oned.NewMultiFormatReader(opts)
	found := false

	// One state per scan direction, threaded through every row of the
	// stream so stacked symbologies accumulate.
	var fwdState, revState oned.DecodingState

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	rowNumber := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "/") {
			continue
		}
		row, err := parseRow(line)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", name, rowNumber, err)
		}

		result, err := decodeBothDirections(reader, rowNumber, row, &fwdState, &revState)
		if err == nil {
			found = true
			fmt.Printf("[%s] %s\n", result.Format, result.Text)
			if id, ok := result.Metadata[linescan.MetadataSymbologyIdentifier]; ok {
				logger.Debug("decoded row", "row", rowNumber, "symbology", id)
			}
		} else {
			logger.Debug("row did not decode", "row", rowNumber)
		}
		rowNumber++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if !found {
		return linescan.ErrNotFound
	}
	return nil
}

// decodeBothDirections tries the row as given, then mirrored for upside-down
// scans.
func decodeBothDirections(reader *oned.MultiFormatReader, rowNumber int, row *bitutil.BitArray, fwdState, revState *oned.DecodingState) (*linescan.Result, error) {
	result, err := reader.DecodeRow(rowNumber, row, fwdState)
	if err == nil {
		return result, nil
	}
	row.Reverse()
	result, err = reader.DecodeRow(rowNumber, row, revState)
	row.Reverse()
	if err != nil {
		return nil, err
	}
	result.PutMetadata(linescan.MetadataOrientation, 180)
	return result, nil
}

func parseRow(line string) (*bitutil.BitArray, error) {
	bits := make([]bool, 0, len(line))
	for _, c := range line {
		switch c {
		case '1', 'X', 'x', '#':
			bits = append(bits, true)
		case '0', '.', ' ', '_':
			bits = append(bits, false)
		default:
			return nil, fmt.Errorf("invalid pixel character %q", c)
		}
	}
	return bitutil.NewBitArrayFromBools(bits), nil
}
