package loaders

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/hectorBrown/icl-y2-project/pkg/optics"
)

// IndexTableOptions controls how delimited index tables are read
type IndexTableOptions struct {
	Comma           rune    // Field separator
	WavelengthScale float64 // Multiplier taking the wavelength column to metres
}

// DefaultIndexTableOptions reads comma separated wavelengths in micrometres
func DefaultIndexTableOptions() IndexTableOptions {
	return IndexTableOptions{
		Comma:           ',',
		WavelengthScale: 1e-6,
	}
}

// ParseIndexTable reads (wavelength, index) rows from a delimited stream.
// Lines starting with '#' are comments and a non-numeric first row is
// treated as a header. Columns beyond the second are ignored.
func ParseIndexTable(reader io.Reader, opts IndexTableOptions) (*optics.Table, error) {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	if opts.WavelengthScale == 0 {
		opts.WavelengthScale = 1e-6
	}

	r := csv.NewReader(reader)
	r.Comma = opts.Comma
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var wavelengths, indices []float64
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("while reading index table: %w", err)
		}
		line, _ := r.FieldPos(0)

		if len(record) < 2 {
			return nil, xerrors.Errorf("line %d: expected wavelength and index, got %d fields", line, len(record))
		}

		wl, wlErr := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		n, nErr := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if wlErr != nil || nErr != nil {
			if row == 0 {
				continue // header
			}
			return nil, xerrors.Errorf("line %d: invalid row %q", line, strings.Join(record, string(opts.Comma)))
		}

		wavelengths = append(wavelengths, wl*opts.WavelengthScale)
		indices = append(indices, n)
	}

	table, err := optics.NewTable(wavelengths, indices)
	if err != nil {
		return nil, xerrors.Errorf("while building index table: %w", err)
	}
	return table, nil
}

// LoadIndexTable loads and parses an index table file
func LoadIndexTable(filename string, opts IndexTableOptions) (*optics.Table, error) {
	if err := validateFilePath(filename, ".csv", ".tsv", ".txt"); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, xerrors.Errorf("while opening index table: %w", err)
	}
	defer file.Close()

	return ParseIndexTable(file, opts)
}
