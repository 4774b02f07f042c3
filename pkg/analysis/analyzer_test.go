package analysis

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/element"
	"github.com/hectorBrown/icl-y2-project/pkg/optics"
	"github.com/hectorBrown/icl-y2-project/pkg/system"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func singleSurface() *system.System {
	return system.New(element.NewSphericalRefractor(100e-3, 30, optics.Constant(1), optics.Constant(1.5)))
}

func biconvex() *system.System {
	return system.New(
		element.NewSphericalRefractor(100e-3, 20, optics.Constant(1), optics.Constant(1.5168)),
		element.NewSphericalRefractor(105e-3, -20, optics.Constant(1.5168), optics.Constant(1)),
	)
}

func concaveMirror() *system.System {
	return system.New(element.NewSphericalReflector(100e-3, -20))
}

func TestFindFocus(t *testing.T) {
	tests := []struct {
		name      string
		sys       *system.System
		want      float64
		tolerance float64
	}{
		// Paraxial image distance n2*R/(n2-n1) behind the vertex
		{"single surface", singleSurface(), 0.2, 1e-6},
		// Back focal length of the thick lens is about 47.5mm
		{"biconvex", biconvex(), 0.1525, 5e-4},
		// Mirror focus sits half a radius in front of the vertex
		{"concave mirror", concaveMirror(), 0.075, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFocus(tt.sys)
			if err != nil {
				t.Fatalf("FindFocus failed: %v", err)
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Expected focus %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFindFocusBiconvexBeyondLens(t *testing.T) {
	focus, err := FindFocus(biconvex())
	if err != nil {
		t.Fatalf("FindFocus failed: %v", err)
	}
	if focus <= 105e-3 {
		t.Errorf("Expected focus beyond the rear surface, got %v", focus)
	}
}

func TestFindFocusNonConvergent(t *testing.T) {
	diverging := system.New(element.NewSphericalRefractor(100e-3, -30, optics.Constant(1), optics.Constant(1.5)))

	short := DefaultConfig()
	short.MaxSteps = 5

	tests := []struct {
		name     string
		analyzer *Analyzer
		sys      *system.System
	}{
		{"diverging surface", NewAnalyzer(DefaultConfig(), nil), diverging},
		{"step limit", NewAnalyzer(short, nil), singleSurface()},
		{"absorbed probe", NewAnalyzer(DefaultConfig(), nil), system.New(element.NewSphericalReflector(100e-3, -20, element.WithReverse()))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.analyzer.FindFocus(tt.sys)
			if !errors.Is(err, core.ErrNonConvergent) {
				t.Errorf("Expected ErrNonConvergent, got %v", err)
			}
		})
	}
}

func TestFindFocusLeavesSystemUntouched(t *testing.T) {
	sys := biconvex()
	if _, err := FindFocus(sys); err != nil {
		t.Fatalf("FindFocus failed: %v", err)
	}
	if sys.Len() != 2 {
		t.Errorf("Expected 2 elements after focusing, got %d", sys.Len())
	}
}

func TestFindFocusLogs(t *testing.T) {
	logger := &recordingLogger{}
	a := NewAnalyzer(DefaultConfig(), logger)
	if _, err := a.FindFocus(singleSurface()); err != nil {
		t.Fatalf("FindFocus failed: %v", err)
	}
	if len(logger.lines) != 1 {
		t.Errorf("Expected 1 log line, got %d: %v", len(logger.lines), logger.lines)
	}
}

func TestSpotSizeBiconvex(t *testing.T) {
	rms, err := SpotSize(biconvex(), 5e-3)
	if err != nil {
		t.Fatalf("SpotSize failed: %v", err)
	}
	if math.IsNaN(rms) || math.IsInf(rms, 0) || rms <= 0 {
		t.Errorf("Expected a finite positive spot size, got %v", rms)
	}
}

func TestSpotSizeGrowsWithAperture(t *testing.T) {
	small, err := SpotSize(singleSurface(), 1e-3)
	if err != nil {
		t.Fatalf("SpotSize(1e-3) failed: %v", err)
	}
	large, err := SpotSize(singleSurface(), 5e-3)
	if err != nil {
		t.Fatalf("SpotSize(5e-3) failed: %v", err)
	}
	if large <= small {
		t.Errorf("Expected spherical aberration to grow with radius, got %v <= %v", large, small)
	}
}

func TestSpotSizePropagatesFocusFailure(t *testing.T) {
	diverging := system.New(element.NewSphericalRefractor(100e-3, -30, optics.Constant(1), optics.Constant(1.5)))
	if _, err := SpotSize(diverging, 1e-3); !errors.Is(err, core.ErrNonConvergent) {
		t.Errorf("Expected ErrNonConvergent, got %v", err)
	}
}

func TestSpotStats(t *testing.T) {
	a := NewAnalyzer(DefaultConfig(), nil)
	sys := biconvex()
	focus, err := a.FindFocus(sys)
	if err != nil {
		t.Fatalf("FindFocus failed: %v", err)
	}

	stats, err := a.SpotStats(sys, 5e-3, focus)
	if err != nil {
		t.Fatalf("SpotStats failed: %v", err)
	}

	// One central ray plus 6*(1+2+...+6)
	if stats.Count != 127 {
		t.Errorf("Expected 127 rays, got %d", stats.Count)
	}
	if stats.Excluded != 0 {
		t.Errorf("Expected no exclusions, got %d", stats.Excluded)
	}
	if stats.MaxRadius < stats.RMS {
		t.Errorf("Expected max radius %v to be at least the RMS %v", stats.MaxRadius, stats.RMS)
	}
	// The bundle is symmetric about the axis
	if math.Abs(stats.CentroidX) > 1e-9 || math.Abs(stats.CentroidY) > 1e-9 {
		t.Errorf("Expected centroid on the axis, got (%v, %v)", stats.CentroidX, stats.CentroidY)
	}
	if sys.Len() != 2 {
		t.Errorf("Expected system to keep 2 elements, got %d", sys.Len())
	}
}

func TestSpotStatsAxialRayOnly(t *testing.T) {
	config := DefaultConfig()
	config.Rings = 0
	a := NewAnalyzer(config, nil)

	stats, err := a.SpotStats(biconvex(), 5e-3, 0.15)
	if err != nil {
		t.Fatalf("SpotStats failed: %v", err)
	}
	if stats.Count != 1 || stats.RMS != 0 {
		t.Errorf("Expected a single ray on the axis, got %+v", stats)
	}
}

func TestSpotStatsMirror(t *testing.T) {
	a := NewAnalyzer(DefaultConfig(), nil)
	stats, err := a.SpotStats(concaveMirror(), 2e-3, 0.075)
	if err != nil {
		t.Fatalf("SpotStats failed: %v", err)
	}
	if stats.Count != 127 {
		t.Errorf("Expected every ray to reach the plane, got %d", stats.Count)
	}
	// Measured after reflection, so the spot is far smaller than the bundle
	if stats.MaxRadius >= 2e-3 {
		t.Errorf("Expected a converged spot, got max radius %v", stats.MaxRadius)
	}
}

func TestSpotStatsExcludesAperturedRays(t *testing.T) {
	a := NewAnalyzer(DefaultConfig(), nil)
	newtonian := system.New(element.NewSphericalReflector(0.5, -2.5, element.WithAperture(0.05)))
	focus, err := a.FindFocus(newtonian)
	if err != nil {
		t.Fatalf("FindFocus failed: %v", err)
	}
	if math.Abs(focus-0.3) > 1e-4 {
		t.Fatalf("Expected focus near 0.3, got %v", focus)
	}

	// Rings at 15mm steps: rings 4..6 lie outside the 50mm aperture
	stats, err := a.SpotStats(newtonian, 0.09, focus)
	if err != nil {
		t.Fatalf("SpotStats failed: %v", err)
	}
	if stats.Count != 37 {
		t.Errorf("Expected 37 rays inside the aperture, got %d", stats.Count)
	}
	if stats.Excluded != 90 {
		t.Errorf("Expected 90 rays excluded by the aperture, got %d", stats.Excluded)
	}
	if stats.MaxRadius > 1e-3 {
		t.Errorf("Expected only reflected rays in the spot, got max radius %v", stats.MaxRadius)
	}
}

func TestSpotStatsNoSamples(t *testing.T) {
	a := NewAnalyzer(DefaultConfig(), nil)
	backing := system.New(element.NewSphericalReflector(100e-3, -20, element.WithReverse()))

	stats, err := a.SpotStats(backing, 1e-3, 0.05)
	if !errors.Is(err, core.ErrNoSamples) {
		t.Fatalf("Expected ErrNoSamples, got %v", err)
	}
	if stats.Excluded != 127 {
		t.Errorf("Expected all 127 rays excluded, got %d", stats.Excluded)
	}
}

func TestSpotStatsInvalidBundle(t *testing.T) {
	a := NewAnalyzer(DefaultConfig(), nil)
	if _, err := a.SpotStats(biconvex(), -1, 0.15); err == nil {
		t.Error("Expected an error for a negative bundle radius")
	}
}
