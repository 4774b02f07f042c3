package element

import (
	"math"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
)

// surface holds the geometry shared by spherical refractors and reflectors.
// Positive curvature puts the centre of curvature at larger z than z0;
// zero curvature is a plane at z0.
type surface struct {
	z0        float64
	curvature float64
	aperture  float64
}

// center returns the centre of curvature, or the vertex for a plane
func (s surface) center() core.Vec3 {
	if s.curvature == 0 {
		return core.NewVec3(0, 0, s.z0)
	}
	return core.NewVec3(0, 0, s.z0+1/s.curvature)
}

// intercept finds where the ray's current state first meets the surface
func (s surface) intercept(ray *core.Ray) (core.Vec3, error) {
	p, d := ray.Position(), ray.Direction()

	var l float64
	if s.curvature == 0 {
		if d.Z == 0 {
			return core.Vec3{}, core.ErrNoIntersection
		}
		l = (s.z0 - p.Z) / d.Z
	} else {
		r := p.Subtract(s.center())
		radius := 1 / s.curvature
		rd := r.Dot(d)
		disc := rd*rd - r.LengthSquared() + radius*radius
		if disc < 0 {
			return core.Vec3{}, core.ErrNoIntersection
		}
		a, b := -rd, math.Sqrt(disc)

		// Keep the root on the hemisphere containing the vertex: for rays
		// heading toward +z that is the near root when the centre lies
		// ahead (positive curvature) and the far root otherwise. Heading
		// toward -z mirrors the choice.
		near := s.curvature > 0
		if d.Z < 0 {
			near = !near
		}
		if near {
			l = a - b
		} else {
			l = a + b
		}
	}

	if l < 0 {
		return core.Vec3{}, core.ErrNoIntersection
	}

	point := p.Add(d.Multiply(l))
	if s.curvature == 0 {
		point.Z = s.z0
	}
	if s.aperture > 0 && point.Radial() > s.aperture {
		return core.Vec3{}, core.ErrNoIntersection
	}
	return point, nil
}

// normal returns the unit surface normal at point, facing against direction
func (s surface) normal(point, direction core.Vec3) core.Vec3 {
	var n core.Vec3
	if s.curvature == 0 {
		n = core.NewVec3(0, 0, -1)
	} else {
		n = point.Subtract(s.center()).Normalize()
		if n.IsZero() {
			// Degenerate: the intercept sits on the centre
			n = core.NewVec3(0, 0, -1)
		}
	}
	if n.Dot(direction) > 0 {
		n = n.Negate()
	}
	return n
}
