package optimize

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hectorBrown/icl-y2-project/pkg/analysis"
	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/element"
)

func testOptimizer() *Optimizer {
	ac := analysis.DefaultConfig()
	ac.Rings = 3

	config := DefaultConfig()
	config.ScanMin = -60
	config.ScanMax = 60
	config.ScanSteps = 120
	config.CurvatureTolerance = 0.5
	config.Workers = 2

	return NewOptimizer(DefaultSinglet(), analysis.NewAnalyzer(ac, nil), config, nil)
}

func TestBuild(t *testing.T) {
	sys := DefaultSinglet().Build(20, -20)
	if sys.Len() != 2 {
		t.Fatalf("Expected 2 surfaces, got %d", sys.Len())
	}

	elements := sys.Elements()
	tests := []struct {
		vertex    float64
		curvature float64
	}{
		{100e-3, 20},
		{105e-3, -20},
	}
	for i, tt := range tests {
		r, ok := elements[i].(*element.SphericalRefractor)
		if !ok {
			t.Fatalf("Surface %d: expected *SphericalRefractor, got %T", i, elements[i])
		}
		if r.Vertex() != tt.vertex || r.Curvature() != tt.curvature {
			t.Errorf("Surface %d: expected (%v, %v), got (%v, %v)", i, tt.vertex, tt.curvature, r.Vertex(), r.Curvature())
		}
	}
}

func TestCompanionCurvatureRecoversSymmetricLens(t *testing.T) {
	o := testOptimizer()
	focus, err := analysis.FindFocus(DefaultSinglet().Build(20, -20))
	if err != nil {
		t.Fatalf("FindFocus failed: %v", err)
	}

	c2, err := o.CompanionCurvature(20, focus)
	if err != nil {
		t.Fatalf("CompanionCurvature failed: %v", err)
	}
	if math.Abs(c2-(-20)) > 1e-3 {
		t.Errorf("Expected c2 close to -20, got %v", c2)
	}
}

func TestCompanionCurvatureHitsTarget(t *testing.T) {
	o := testOptimizer()
	for _, c1 := range []float64{0, 10, 30} {
		c2, err := o.CompanionCurvature(c1, 0.2)
		if err != nil {
			t.Fatalf("c1=%v: CompanionCurvature failed: %v", c1, err)
		}
		got, err := analysis.FindFocus(DefaultSinglet().Build(c1, c2))
		if err != nil {
			t.Fatalf("c1=%v: FindFocus failed: %v", c1, err)
		}
		if math.Abs(got-0.2) > 1e-6 {
			t.Errorf("c1=%v: expected focus 0.2, got %v", c1, got)
		}
	}
}

func TestCompanionCurvatureUnreachable(t *testing.T) {
	o := testOptimizer()
	// In front of the lens
	if _, err := o.CompanionCurvature(20, 0.05); !errors.Is(err, core.ErrNonConvergent) {
		t.Errorf("Expected ErrNonConvergent, got %v", err)
	}
}

func TestEvaluateUnreachable(t *testing.T) {
	r := testOptimizer().Evaluate(20, 0.05)
	if r.Valid {
		t.Error("Expected invalid result")
	}
	if !math.IsInf(r.RMS, 1) {
		t.Errorf("Expected +Inf RMS, got %v", r.RMS)
	}
}

func TestMinimize(t *testing.T) {
	o := testOptimizer()
	best, err := o.Minimize(0, 40, 0.2)
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}
	if !best.Valid {
		t.Fatal("Expected a valid result")
	}
	if best.C1 <= 5 || best.C1 >= 35 {
		t.Errorf("Expected the best shape inside (5, 35), got c1=%v", best.C1)
	}

	for _, c1 := range []float64{5, 35} {
		r := o.Evaluate(c1, 0.2)
		if !r.Valid {
			t.Fatalf("c1=%v: expected valid evaluation", c1)
		}
		if best.RMS > r.RMS {
			t.Errorf("Expected best rms %v to beat c1=%v rms %v", best.RMS, c1, r.RMS)
		}
	}
}

func TestMinimizeNothingReachable(t *testing.T) {
	if _, err := testOptimizer().Minimize(0, 40, 0.05); !errors.Is(err, core.ErrNonConvergent) {
		t.Errorf("Expected ErrNonConvergent, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	o := testOptimizer()
	results, err := o.Sweep(context.Background(), 0, 40, 5, 0.2)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		want := 10 * float64(i)
		if r.C1 != want {
			t.Errorf("Result %d: expected c1 %v, got %v", i, want, r.C1)
		}
		if !r.Valid {
			t.Errorf("Result %d: expected valid evaluation", i)
		}
	}
}

func TestSweepErrors(t *testing.T) {
	o := testOptimizer()

	if _, err := o.Sweep(context.Background(), 0, 40, 0, 0.2); err == nil {
		t.Error("Expected an error for zero samples")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Sweep(ctx, 0, 40, 3, 0.2); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
