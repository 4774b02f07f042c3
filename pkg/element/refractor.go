package element

import (
	"fmt"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/optics"
)

// SphericalRefractor is a spherical interface between two media
type SphericalRefractor struct {
	surface
	n1 optics.Index // medium on the -z side
	n2 optics.Index // medium on the +z side
}

// NewSphericalRefractor creates a refracting surface with vertex z0.
// n1 is the medium on the -z side and n2 the medium on the +z side.
func NewSphericalRefractor(z0, curvature float64, n1, n2 optics.Index, opts ...Option) *SphericalRefractor {
	o := applyOptions(opts)
	return &SphericalRefractor{
		surface: surface{z0: z0, curvature: curvature, aperture: o.aperture},
		n1:      n1,
		n2:      n2,
	}
}

// Propagate implements the Element interface. Rays that would be totally
// internally reflected are terminated.
func (s *SphericalRefractor) Propagate(ray *core.Ray) error {
	if ray.Terminated() {
		return core.ErrTerminated
	}

	point, err := s.intercept(ray)
	if err != nil {
		return err
	}

	direction := ray.Direction()
	normal := s.normal(point, direction)

	wavelength, ok := ray.Wavelength()
	if !ok {
		wavelength = optics.Untagged
	}
	nIn, nOut := s.n1(wavelength), s.n2(wavelength)
	if direction.Z < 0 {
		nIn, nOut = nOut, nIn
	}

	refracted, ok := optics.Refract(direction, normal, nIn, nOut)
	if !ok {
		ray.Terminate()
		return core.ErrTotalInternalReflection
	}
	return ray.Append(point, refracted)
}

// Vertex implements the Element interface
func (s *SphericalRefractor) Vertex() float64 { return s.z0 }

// Curvature returns the signed curvature
func (s *SphericalRefractor) Curvature() float64 { return s.curvature }

// Aperture returns the clear radius, or 0 when unbounded
func (s *SphericalRefractor) Aperture() float64 { return s.aperture }

// Indices returns the index functions on the -z and +z sides
func (s *SphericalRefractor) Indices() (optics.Index, optics.Index) { return s.n1, s.n2 }

// Copy implements the Element interface
func (s *SphericalRefractor) Copy() Element {
	c := *s
	return &c
}

func (s *SphericalRefractor) String() string {
	n1, n2 := s.n1(optics.Untagged), s.n2(optics.Untagged)
	if s.aperture > 0 {
		return fmt.Sprintf("SphericalRefractor(z0=%g, c=%g, n1=%g, n2=%g, aperture=%g)", s.z0, s.curvature, n1, n2, s.aperture)
	}
	return fmt.Sprintf("SphericalRefractor(z0=%g, c=%g, n1=%g, n2=%g)", s.z0, s.curvature, n1, n2)
}
