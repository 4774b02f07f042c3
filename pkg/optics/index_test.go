package optics

import (
	"math"
	"testing"
)

func TestConstant(t *testing.T) {
	n := Constant(1.5)
	for _, wl := range []float64{Untagged, 400e-9, 700e-9} {
		if got := n(wl); got != 1.5 {
			t.Errorf("Constant(1.5)(%g) = %v", wl, got)
		}
	}
}

func TestTable_Interpolation(t *testing.T) {
	table, err := NewTable([]float64{700e-9, 400e-9, 500e-9}, []float64{1.50, 1.53, 1.52})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		wavelength float64
		want       float64
	}{
		{"exact point", 500e-9, 1.52},
		{"between points", 450e-9, 1.525},
		{"between last points", 600e-9, 1.51},
		{"below range clamps", 300e-9, 1.53},
		{"above range clamps", 900e-9, 1.50},
		{"untagged uses d-line", Untagged, 1.52 + (DLine-500e-9)*(1.50-1.52)/(200e-9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.At(tt.wavelength); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("At(%g) = %.15f, want %.15f", tt.wavelength, got, tt.want)
			}
		})
	}

	table.SetReference(400e-9)
	if got := table.Index()(Untagged); got != 1.53 {
		t.Errorf("Expected reference index 1.53, got %v", got)
	}
}

func TestTable_Validation(t *testing.T) {
	tests := []struct {
		name        string
		wavelengths []float64
		indices     []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", []float64{500e-9}, []float64{1.5, 1.6}},
		{"negative wavelength", []float64{-500e-9}, []float64{1.5}},
		{"zero index", []float64{500e-9}, []float64{0}},
		{"duplicate wavelength", []float64{500e-9, 500e-9}, []float64{1.5, 1.6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.wavelengths, tt.indices); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestBK7_Dispersion(t *testing.T) {
	bk7 := BK7().Index()
	blue, green, red := bk7(450e-9), bk7(DLine), bk7(650e-9)
	if !(blue > green && green > red) {
		t.Errorf("Expected normal dispersion, got blue=%v d=%v red=%v", blue, green, red)
	}
	if bk7(Untagged) != 1.51680 {
		t.Errorf("Expected nd=1.51680 for untagged rays, got %v", bk7(Untagged))
	}
}
