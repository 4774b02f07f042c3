package optimize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hectorBrown/icl-y2-project/pkg/analysis"
	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/element"
	"github.com/hectorBrown/icl-y2-project/pkg/optics"
	"github.com/hectorBrown/icl-y2-project/pkg/system"
)

// invPhi is 1/golden ratio
var invPhi = (math.Sqrt(5) - 1) / 2

// Singlet is a two-surface lens with fixed vertex positions and materials
type Singlet struct {
	Z1, Z2   float64      // Front and back vertices
	NOutside optics.Index // Medium around the lens
	NGlass   optics.Index // Lens material
}

// DefaultSinglet returns a 5mm thick N-BK7 singlet starting at 100mm
func DefaultSinglet() Singlet {
	return Singlet{
		Z1:       100e-3,
		Z2:       105e-3,
		NOutside: optics.Constant(1),
		NGlass:   optics.Constant(1.5168),
	}
}

// Build returns the singlet with front curvature c1 and back curvature c2
func (s Singlet) Build(c1, c2 float64) *system.System {
	return system.New(
		element.NewSphericalRefractor(s.Z1, c1, s.NOutside, s.NGlass),
		element.NewSphericalRefractor(s.Z2, c2, s.NGlass, s.NOutside),
	)
}

// Config contains the search parameters
type Config struct {
	ScanMin, ScanMax   float64 // Back curvatures scanned for a focus bracket
	ScanSteps          int     // Samples across the scan range
	FocusTolerance     float64 // Acceptable focus error for the companion curvature
	CurvatureTolerance float64 // Final bracket width of the front curvature search
	MaxIterations      int     // Bisection and golden-section iteration limit
	Radius             float64 // Bundle radius used for spot sizes
	Workers            int     // Concurrent sweep evaluations (0 = auto-detect)
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		ScanMin:            -100,
		ScanMax:            100,
		ScanSteps:          400,
		FocusTolerance:     1e-9,
		CurvatureTolerance: 1e-3,
		MaxIterations:      200,
		Radius:             10e-3,
		Workers:            0,
	}
}

// Result is one evaluated lens shape
type Result struct {
	C1, C2 float64
	RMS    float64
	Valid  bool // False when no back curvature reaches the focus
}

// Optimizer searches singlet shapes for the smallest spot at a fixed focus
type Optimizer struct {
	singlet  Singlet
	analyzer *analysis.Analyzer
	config   Config
	logger   core.Logger
}

// NewOptimizer creates a new optimizer. A nil analyzer uses the analysis
// defaults and a nil logger discards output.
func NewOptimizer(singlet Singlet, analyzer *analysis.Analyzer, config Config, logger core.Logger) *Optimizer {
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(analysis.DefaultConfig(), nil)
	}
	if logger == nil {
		logger = core.NopLogger()
	}
	return &Optimizer{singlet: singlet, analyzer: analyzer, config: config, logger: logger}
}

// focusError is the signed distance of the singlet's focus from the target
func (o *Optimizer) focusError(c1, c2, focus float64) (float64, bool) {
	f, err := o.analyzer.FindFocus(o.singlet.Build(c1, c2))
	if err != nil {
		return 0, false
	}
	return f - focus, true
}

// CompanionCurvature returns the back curvature that puts the singlet's
// paraxial focus at the given axial position. The scan range is sampled
// for a sign change in the focus error, which is then bisected.
func (o *Optimizer) CompanionCurvature(c1, focus float64) (float64, error) {
	if o.config.ScanSteps < 1 {
		return 0, fmt.Errorf("scan steps must be positive, got %d", o.config.ScanSteps)
	}

	step := (o.config.ScanMax - o.config.ScanMin) / float64(o.config.ScanSteps)
	prevC, prevErr, prevOK := o.config.ScanMin, 0.0, false
	for i := 0; i <= o.config.ScanSteps; i++ {
		c := o.config.ScanMin + float64(i)*step
		e, ok := o.focusError(c1, c, focus)
		if ok && e == 0 {
			return c, nil
		}
		if ok && prevOK && math.Signbit(e) != math.Signbit(prevErr) {
			return o.bisect(c1, focus, prevC, c, prevErr)
		}
		prevC, prevErr, prevOK = c, e, ok
	}

	return 0, fmt.Errorf("%w: no back curvature in [%g, %g] focuses c1=%g at z=%g",
		core.ErrNonConvergent, o.config.ScanMin, o.config.ScanMax, c1, focus)
}

func (o *Optimizer) bisect(c1, focus, lo, hi, errLo float64) (float64, error) {
	for i := 0; i < o.config.MaxIterations; i++ {
		mid := (lo + hi) / 2
		e, ok := o.focusError(c1, mid, focus)
		if !ok {
			return 0, fmt.Errorf("%w: focus lost at c2=%g while bisecting", core.ErrNonConvergent, mid)
		}
		if math.Abs(e) <= o.config.FocusTolerance {
			return mid, nil
		}
		if math.Signbit(e) == math.Signbit(errLo) {
			lo, errLo = mid, e
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

// Evaluate solves for the companion curvature of c1 and measures the spot
// at the target focus. Shapes that cannot reach the focus are returned
// invalid with an infinite RMS.
func (o *Optimizer) Evaluate(c1, focus float64) Result {
	c2, err := o.CompanionCurvature(c1, focus)
	if err != nil {
		return Result{C1: c1, RMS: math.Inf(1)}
	}
	rms, err := o.analyzer.SpotSizeAt(o.singlet.Build(c1, c2), o.config.Radius, focus)
	if err != nil {
		return Result{C1: c1, C2: c2, RMS: math.Inf(1)}
	}
	return Result{C1: c1, C2: c2, RMS: rms, Valid: true}
}

// Minimize golden-section searches front curvatures in [lo, hi] for the
// smallest RMS spot at a fixed focus
func (o *Optimizer) Minimize(lo, hi, focus float64) (Result, error) {
	if lo > hi {
		lo, hi = hi, lo
	}

	best := Result{RMS: math.Inf(1)}
	consider := func(r Result) Result {
		if r.Valid && r.RMS < best.RMS {
			best = r
		}
		return r
	}

	x1 := hi - invPhi*(hi-lo)
	x2 := lo + invPhi*(hi-lo)
	f1 := consider(o.Evaluate(x1, focus)).RMS
	f2 := consider(o.Evaluate(x2, focus)).RMS

	for i := 0; i < o.config.MaxIterations && hi-lo > o.config.CurvatureTolerance; i++ {
		if f1 <= f2 {
			hi, x2, f2 = x2, x1, f1
			x1 = hi - invPhi*(hi-lo)
			f1 = consider(o.Evaluate(x1, focus)).RMS
		} else {
			lo, x1, f1 = x1, x2, f2
			x2 = lo + invPhi*(hi-lo)
			f2 = consider(o.Evaluate(x2, focus)).RMS
		}
		o.logger.Printf("Iteration %d: c1 in [%.6g, %.6g], best rms %.6g\n", i+1, lo, hi, best.RMS)
	}

	if !best.Valid {
		return best, fmt.Errorf("%w: no front curvature in range reaches z=%g", core.ErrNonConvergent, focus)
	}
	return best, nil
}

// Sweep evaluates count evenly spaced front curvatures from lo to hi
// inclusive, spreading the work over the configured workers
func (o *Optimizer) Sweep(ctx context.Context, lo, hi float64, count int, focus float64) ([]Result, error) {
	if count < 1 {
		return nil, errors.New("sweep needs at least one sample")
	}

	workers := o.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, count)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range results {
		c1 := lo
		if count > 1 {
			c1 = lo + (hi-lo)*float64(i)/float64(count-1)
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = o.Evaluate(c1, focus)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("while waiting for sweep: %w", err)
	}
	return results, nil
}
