package loaders

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseIndexTable(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    IndexTableOptions
		queries map[float64]float64 // wavelength (m) -> expected index
	}{
		{
			name:  "micrometres with header",
			input: "wavelength,n\n0.5,1.52\n0.6,1.51\n",
			opts:  DefaultIndexTableOptions(),
			queries: map[float64]float64{
				500e-9: 1.52,
				550e-9: 1.515,
				600e-9: 1.51,
			},
		},
		{
			name:  "comments and unsorted rows",
			input: "# BK7 subset\n0.6, 1.51\n# middle\n0.5, 1.52\n",
			opts:  DefaultIndexTableOptions(),
			queries: map[float64]float64{
				450e-9: 1.52, // clamped
				700e-9: 1.51, // clamped
			},
		},
		{
			name:  "tab separated nanometres",
			input: "400\t1.53\n700\t1.51\textra\n",
			opts:  IndexTableOptions{Comma: '\t', WavelengthScale: 1e-9},
			queries: map[float64]float64{
				550e-9: 1.52,
			},
		},
		{
			name:  "zero options fall back to defaults",
			input: "0.4,1.6\n0.8,1.4\n",
			opts:  IndexTableOptions{},
			queries: map[float64]float64{
				600e-9: 1.5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseIndexTable(strings.NewReader(tt.input), tt.opts)
			if err != nil {
				t.Fatalf("ParseIndexTable failed: %v", err)
			}
			for wl, want := range tt.queries {
				if got := table.At(wl); math.Abs(got-want) > 1e-12 {
					t.Errorf("At(%v): expected %v, got %v", wl, want, got)
				}
			}
		})
	}
}

func TestParseIndexTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only", "wavelength,n\n"},
		{"single column", "0.5\n0.6\n"},
		{"bad row after data", "0.5,1.52\nabc,1.5\n"},
		{"duplicate wavelength", "0.5,1.52\n0.5,1.53\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseIndexTable(strings.NewReader(tt.input), DefaultIndexTableOptions()); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoadIndexTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glass.csv")
	if err := os.WriteFile(path, []byte("0.5,1.52\n0.6,1.51\n"), 0644); err != nil {
		t.Fatalf("Failed to write table: %v", err)
	}

	table, err := LoadIndexTable(path, DefaultIndexTableOptions())
	if err != nil {
		t.Fatalf("LoadIndexTable failed: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", table.Len())
	}

	if _, err := LoadIndexTable(filepath.Join(dir, "missing.csv"), DefaultIndexTableOptions()); err == nil {
		t.Error("Expected an error for a missing file")
	}
	if _, err := LoadIndexTable(filepath.Join(dir, "glass.yaml"), DefaultIndexTableOptions()); err == nil {
		t.Error("Expected an error for a wrong extension")
	}
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"yaml", "lenses/biconvex.yaml", false},
		{"yml upper case", "lenses/BICONVEX.YML", false},
		{"empty", "", true},
		{"null byte", "lenses/a\x00.yaml", true},
		{"wrong extension", "lenses/biconvex.pbrt", true},
		{"too long", strings.Repeat("a", maxPathLength) + ".yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilePath(tt.path, ".yaml", ".yml")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFilePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
