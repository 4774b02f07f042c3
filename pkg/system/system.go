package system

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/element"
)

const (
	// paraxialDivisor scales the first radius of curvature down into the paraxial regime
	paraxialDivisor = 1e3
	// defaultParaxialScale is used when no element is curved
	defaultParaxialScale = 1e-5
	// minLaunchClearance keeps launched rays at least this far in front of the first vertex
	minLaunchClearance = 1e-3
)

// System is an ordered sequence of optical elements. Rays visit the
// elements in insertion order; no sorting by position is done.
type System struct {
	elements []element.Element
}

// New creates a system from the given elements
func New(elements ...element.Element) *System {
	return &System{elements: append([]element.Element(nil), elements...)}
}

// Append adds an element to the end of the system
func (s *System) Append(e element.Element) {
	s.elements = append(s.elements, e)
}

// Elements returns the elements in propagation order
func (s *System) Elements() []element.Element {
	return append([]element.Element(nil), s.elements...)
}

// Len returns the number of elements
func (s *System) Len() int {
	return len(s.elements)
}

// Copy returns a system with copies of every element, so appending to it
// leaves the original untouched
func (s *System) Copy() *System {
	c := &System{elements: make([]element.Element, len(s.elements))}
	for i, e := range s.elements {
		c.elements[i] = e.Copy()
	}
	return c
}

// Propagate passes the ray through every element in order. Every element is
// attempted even after a failure; the first failure is returned. Each element
// that succeeds appends exactly one vertex.
func (s *System) Propagate(ray *core.Ray) error {
	var first error
	for i, e := range s.elements {
		if err := e.Propagate(ray); err != nil && first == nil {
			first = fmt.Errorf("element %d %s: %w", i, e, err)
		}
	}
	return first
}

// PropagateBundle propagates each ray independently and returns how many of
// them reported a failure
func (s *System) PropagateBundle(rays []*core.Ray) int {
	failed := 0
	for _, r := range rays {
		if err := s.Propagate(r); err != nil {
			failed++
		}
	}
	return failed
}

// PropagateBundleContext is PropagateBundle spread over at most workers
// goroutines (0 means one per CPU). Rays share no state, so each one is
// handled by exactly one goroutine. The error is non-nil only when ctx ends
// before every ray was handed out.
func (s *System) PropagateBundleContext(ctx context.Context, rays []*core.Ray, workers int) (int, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	failures := make([]bool, len(rays))
	eg, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))

	var acquireErr error
	for i, r := range rays {
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = fmt.Errorf("while acquiring propagation slot: %w", err)
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)
			failures[i] = s.Propagate(r) != nil
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, fmt.Errorf("while waiting for bundle propagation: %w", err)
	}
	if acquireErr != nil {
		return 0, acquireErr
	}

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	return failed, nil
}

// ParaxialScale returns a probe height small enough to stay paraxial: the
// first curved element's radius of curvature divided by a large constant.
func (s *System) ParaxialScale() float64 {
	for _, e := range s.elements {
		if c, ok := e.(element.Curved); ok && c.Curvature() != 0 {
			return math.Abs(1/c.Curvature()) / paraxialDivisor
		}
	}
	return defaultParaxialScale
}

// LaunchZ returns an axial position in front of every element, leaving room
// for the sag of the most strongly curved surface
func (s *System) LaunchZ() float64 {
	if len(s.elements) == 0 {
		return 0
	}
	minVertex := math.Inf(1)
	clearance := minLaunchClearance
	for _, e := range s.elements {
		minVertex = math.Min(minVertex, e.Vertex())
		if c, ok := e.(element.Curved); ok && c.Curvature() != 0 {
			clearance = math.Max(clearance, math.Abs(1/c.Curvature()))
		}
	}
	return math.Min(0, minVertex-clearance)
}

func (s *System) String() string {
	parts := make([]string, len(s.elements))
	for i, e := range s.elements {
		parts[i] = e.String()
	}
	return "System[" + strings.Join(parts, ", ") + "]"
}
