package element

import (
	"fmt"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
)

// OutputPlane is a virtual sensor plane that records where rays cross it
// without changing their direction
type OutputPlane struct {
	z0 float64
}

// NewOutputPlane creates an output plane at z0
func NewOutputPlane(z0 float64) *OutputPlane {
	return &OutputPlane{z0: z0}
}

// Propagate implements the Element interface
func (p *OutputPlane) Propagate(ray *core.Ray) error {
	if ray.Terminated() {
		return core.ErrTerminated
	}

	pos, dir := ray.Position(), ray.Direction()
	if dir.Z == 0 {
		return core.ErrNoIntersection
	}
	l := (p.z0 - pos.Z) / dir.Z
	if l < 0 {
		return core.ErrNoIntersection
	}
	point := pos.Add(dir.Multiply(l))
	point.Z = p.z0 // pin to the plane exactly
	return ray.Append(point, dir)
}

// Vertex implements the Element interface
func (p *OutputPlane) Vertex() float64 { return p.z0 }

// Copy implements the Element interface
func (p *OutputPlane) Copy() Element {
	return &OutputPlane{z0: p.z0}
}

func (p *OutputPlane) String() string {
	return fmt.Sprintf("OutputPlane(z0=%g)", p.z0)
}
