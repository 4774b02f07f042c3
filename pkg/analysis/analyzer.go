package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/element"
	"github.com/hectorBrown/icl-y2-project/pkg/optics"
	"github.com/hectorBrown/icl-y2-project/pkg/system"
)

// Config contains the focus search and spot sampling parameters
type Config struct {
	Step        float64 // Axial spacing between trial planes when searching for the focus
	MaxSteps    int     // Trial planes placed before the search gives up
	Overshoot   float64 // Fractional distance past the focus at which the spot is measured
	Rings       int     // Concentric rings in the spot-size bundle
	RaysPerRing int     // Rays in the innermost ring; ring i carries i times as many
	Workers     int     // Bundle propagation goroutines (0 = auto-detect)
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Step:        1e-3,
		MaxSteps:    100000,
		Overshoot:   1e-3,
		Rings:       6,
		RaysPerRing: 6,
		Workers:     0, // Auto-detect CPU count
	}
}

// Analyzer locates paraxial foci and measures spot sizes for optical systems
type Analyzer struct {
	config Config
	logger core.Logger
}

// NewAnalyzer creates a new analyzer. A nil logger discards output.
func NewAnalyzer(config Config, logger core.Logger) *Analyzer {
	if logger == nil {
		logger = core.NopLogger()
	}
	return &Analyzer{config: config, logger: logger}
}

// Config returns the analyzer's configuration
func (a *Analyzer) Config() Config {
	return a.config
}

// traceProbe sends a near-axis ray parallel to the axis through the system
func (a *Analyzer) traceProbe(sys *system.System) (*core.Ray, error) {
	probe, err := core.NewRay(core.NewVec3(0, sys.ParaxialScale(), sys.LaunchZ()), core.NewVec3(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return probe, sys.Propagate(probe)
}

// FindFocus returns the axial position where a paraxial probe ray crosses
// the optical axis after passing through the system. Systems that do not
// bring the probe back toward the axis yield core.ErrNonConvergent.
func (a *Analyzer) FindFocus(sys *system.System) (float64, error) {
	probe, err := a.traceProbe(sys)
	if err != nil {
		return 0, fmt.Errorf("%w: probe ray: %w", core.ErrNonConvergent, err)
	}

	sign := math.Copysign(1, probe.Direction().Z)
	if probe.Direction().Z == 0 {
		return 0, fmt.Errorf("%w: probe travels perpendicular to the axis", core.ErrNonConvergent)
	}

	start := probe.Position()
	prevZ, prevY := start.Z, start.Y
	for k := 1; k <= a.config.MaxSteps; k++ {
		plane := element.NewOutputPlane(start.Z + sign*float64(k)*a.config.Step)
		if err := plane.Propagate(probe); err != nil {
			return 0, fmt.Errorf("%w: trial plane %d: %w", core.ErrNonConvergent, k, err)
		}

		p := probe.Position()
		if p.Y == 0 {
			a.logger.Printf("Probe landed on the axis at z=%g after %d steps\n", p.Z, k)
			return p.Z, nil
		}
		if math.Signbit(p.Y) != math.Signbit(prevY) {
			focus := prevZ + (p.Z-prevZ)*prevY/(prevY-p.Y)
			a.logger.Printf("Focus at z=%g after %d steps\n", focus, k)
			return focus, nil
		}
		if k == 1 && math.Abs(p.Y) >= math.Abs(prevY) {
			return 0, fmt.Errorf("%w: probe diverges after the last element", core.ErrNonConvergent)
		}
		prevZ, prevY = p.Z, p.Y
	}

	return 0, fmt.Errorf("%w: no axis crossing within %d steps", core.ErrNonConvergent, a.config.MaxSteps)
}

// SpotSize finds the paraxial focus and returns the RMS spot radius of a
// bundle of the given radius measured just past it
func (a *Analyzer) SpotSize(sys *system.System, radius float64) (float64, error) {
	focus, err := a.FindFocus(sys)
	if err != nil {
		return 0, err
	}
	return a.SpotSizeAt(sys, radius, focus)
}

// SpotSizeAt returns the RMS spot radius measured just past a known focus
func (a *Analyzer) SpotSizeAt(sys *system.System, radius, focus float64) (float64, error) {
	stats, err := a.SpotStats(sys, radius, focus)
	if err != nil {
		return 0, err
	}
	return stats.RMS, nil
}

// SpotStats traces a ring bundle and summarises where it lands on a plane
// just past focus
func (a *Analyzer) SpotStats(sys *system.System, radius, focus float64) (SpotStats, error) {
	return a.SpotStatsContext(context.Background(), sys, radius, focus)
}

// SpotStatsContext is SpotStats with cancellation of the bundle propagation
func (a *Analyzer) SpotStatsContext(ctx context.Context, sys *system.System, radius, focus float64) (SpotStats, error) {
	// Step toward wherever the light ends up travelling
	sign := 1.0
	if probe, err := a.traceProbe(sys); err == nil && probe.Direction().Z < 0 {
		sign = -1
	}
	overshoot := math.Max(a.config.Overshoot*math.Abs(focus), a.config.Overshoot*a.config.Step)
	planeZ := focus + sign*overshoot

	rays, err := optics.NewBundle(radius, a.config.Rings, a.config.RaysPerRing,
		optics.WithOrigin(core.NewVec3(0, 0, sys.LaunchZ())))
	if err != nil {
		return SpotStats{}, fmt.Errorf("building bundle: %w", err)
	}

	trace := sys.Copy()
	trace.Append(element.NewOutputPlane(planeZ))
	failed, err := trace.PropagateBundleContext(ctx, rays, a.config.Workers)
	if err != nil {
		return SpotStats{}, err
	}
	a.logger.Printf("Propagated %d rays to z=%g (%d reported failures)\n", len(rays), planeZ, failed)

	// Every element appends one vertex on success, so only rays with a vertex
	// per element went through the whole system. A ray that missed an aperture
	// still reaches the measurement plane along its launch segment.
	complete := trace.Len() + 1
	var acc spotAccumulator
	for _, r := range rays {
		if r.Terminated() || r.Len() != complete {
			acc.exclude()
			continue
		}
		x, y, ok := r.PositionAtFrom(planeZ, r.Len()-2)
		if !ok {
			acc.exclude()
			continue
		}
		acc.add(x, y)
	}

	if acc.count == 0 {
		return SpotStats{Excluded: acc.excluded}, core.ErrNoSamples
	}
	return acc.stats(), nil
}

var defaultAnalyzer = NewAnalyzer(DefaultConfig(), nil)

// FindFocus runs Analyzer.FindFocus with the default configuration
func FindFocus(sys *system.System) (float64, error) {
	return defaultAnalyzer.FindFocus(sys)
}

// SpotSize runs Analyzer.SpotSize with the default configuration
func SpotSize(sys *system.System, radius float64) (float64, error) {
	return defaultAnalyzer.SpotSize(sys, radius)
}
