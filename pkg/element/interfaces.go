package element

import (
	"github.com/hectorBrown/icl-y2-project/pkg/core"
)

// Element is an optical surface perpendicular to, and centred on, the z axis.
// Propagate intersects the ray's current state with the surface and either
// appends the new vertex/direction or terminates the ray. A nil error means
// the ray was advanced.
type Element interface {
	Propagate(ray *core.Ray) error
	// Vertex returns the axial position where the surface meets the z axis
	Vertex() float64
	// Copy returns an independent element with the same configuration
	Copy() Element
	String() string
}

// Curved is implemented by elements with a curvature (1/radius)
type Curved interface {
	Curvature() float64
}

// Option configures optional element parameters
type Option func(*options)

type options struct {
	aperture float64
	reverse  bool
}

// WithAperture limits the surface to a clear radius. Values <= 0 mean unbounded.
func WithAperture(radius float64) Option {
	return func(o *options) { o.aperture = radius }
}

// WithReverse makes a reflector reflective on its +z face instead of its -z face.
// Refractors ignore it.
func WithReverse() Option {
	return func(o *options) { o.reverse = true }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
