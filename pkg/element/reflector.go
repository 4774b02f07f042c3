package element

import (
	"fmt"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/optics"
)

// SphericalReflector is a spherical mirror silvered on one face.
// By default the reflective face looks toward -z.
type SphericalReflector struct {
	surface
	reverse bool
}

// NewSphericalReflector creates a mirror with vertex z0
func NewSphericalReflector(z0, curvature float64, opts ...Option) *SphericalReflector {
	o := applyOptions(opts)
	return &SphericalReflector{
		surface: surface{z0: z0, curvature: curvature, aperture: o.aperture},
		reverse: o.reverse,
	}
}

// Propagate implements the Element interface. A ray striking the backing
// is absorbed and terminated.
func (s *SphericalReflector) Propagate(ray *core.Ray) error {
	if ray.Terminated() {
		return core.ErrTerminated
	}

	point, err := s.intercept(ray)
	if err != nil {
		return err
	}

	direction := ray.Direction()
	normal := s.normal(point, direction)

	// The oriented normal points back at the ray, so its z sign tells which
	// face was struck.
	struckFront := normal.Z <= 0
	if struckFront == s.reverse {
		ray.Terminate()
		return core.ErrAbsorbed
	}

	return ray.Append(point, optics.Reflect(direction, normal))
}

// Vertex implements the Element interface
func (s *SphericalReflector) Vertex() float64 { return s.z0 }

// Curvature returns the signed curvature
func (s *SphericalReflector) Curvature() float64 { return s.curvature }

// Reversed reports whether the +z face is the reflective one
func (s *SphericalReflector) Reversed() bool { return s.reverse }

// Copy implements the Element interface
func (s *SphericalReflector) Copy() Element {
	c := *s
	return &c
}

func (s *SphericalReflector) String() string {
	return fmt.Sprintf("SphericalReflector(z0=%g, c=%g, aperture=%g, reverse=%t)", s.z0, s.curvature, s.aperture, s.reverse)
}
