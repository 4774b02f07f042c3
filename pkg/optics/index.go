package optics

import (
	"fmt"
	"sort"
)

// Untagged is the wavelength handed to an Index for rays without a wavelength tag
const Untagged = 0.0

// DLine is the helium d-line, the usual reference wavelength for glass catalogues
const DLine = 587.56e-9

// Index returns the refractive index of a medium at a wavelength in metres.
// Untagged rays are queried with Untagged.
type Index func(wavelength float64) float64

// Constant returns a non-dispersive Index
func Constant(n float64) Index {
	return func(float64) float64 { return n }
}

// Table is a piecewise-linear dispersion curve
type Table struct {
	wavelengths []float64
	indices     []float64
	reference   float64
}

// NewTable builds a dispersion table from parallel wavelength (metres) and
// index slices. Points are sorted by wavelength; at least one is required.
func NewTable(wavelengths, indices []float64) (*Table, error) {
	if len(wavelengths) != len(indices) {
		return nil, fmt.Errorf("table has %d wavelengths but %d indices", len(wavelengths), len(indices))
	}
	if len(wavelengths) == 0 {
		return nil, fmt.Errorf("table is empty")
	}

	type point struct{ wl, n float64 }
	points := make([]point, len(wavelengths))
	for i := range wavelengths {
		if wavelengths[i] <= 0 {
			return nil, fmt.Errorf("wavelength %g at row %d must be positive", wavelengths[i], i)
		}
		if indices[i] <= 0 {
			return nil, fmt.Errorf("index %g at row %d must be positive", indices[i], i)
		}
		points[i] = point{wavelengths[i], indices[i]}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].wl < points[j].wl })

	t := &Table{
		wavelengths: make([]float64, len(points)),
		indices:     make([]float64, len(points)),
		reference:   DLine,
	}
	for i, p := range points {
		if i > 0 && p.wl == points[i-1].wl {
			return nil, fmt.Errorf("duplicate wavelength %g", p.wl)
		}
		t.wavelengths[i] = p.wl
		t.indices[i] = p.n
	}
	return t, nil
}

// SetReference changes the wavelength used for untagged rays
func (t *Table) SetReference(wavelength float64) {
	t.reference = wavelength
}

// Len returns the number of points in the table
func (t *Table) Len() int {
	return len(t.wavelengths)
}

// At interpolates the index at a wavelength, clamping outside the table range
func (t *Table) At(wavelength float64) float64 {
	if wavelength == Untagged {
		wavelength = t.reference
	}

	n := len(t.wavelengths)
	if wavelength <= t.wavelengths[0] {
		return t.indices[0]
	}
	if wavelength >= t.wavelengths[n-1] {
		return t.indices[n-1]
	}

	// First point at or above the wavelength
	i := sort.SearchFloat64s(t.wavelengths, wavelength)
	if t.wavelengths[i] == wavelength {
		return t.indices[i]
	}
	w0, w1 := t.wavelengths[i-1], t.wavelengths[i]
	n0, n1 := t.indices[i-1], t.indices[i]
	return n0 + (wavelength-w0)*(n1-n0)/(w1-w0)
}

// Index adapts the table to the Index capability
func (t *Table) Index() Index {
	return t.At
}

// BK7 returns a table for Schott N-BK7 borosilicate crown glass over the visible range
func BK7() *Table {
	t, _ := NewTable(
		[]float64{404.66e-9, 435.83e-9, 486.13e-9, 546.07e-9, 587.56e-9, 656.27e-9, 706.52e-9},
		[]float64{1.53024, 1.52668, 1.52238, 1.51872, 1.51680, 1.51432, 1.51289},
	)
	return t
}
