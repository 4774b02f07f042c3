package optics

import (
	"fmt"
	"math"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
)

// BundleOption customises bundle generation
type BundleOption func(*bundleConfig)

type bundleConfig struct {
	origin     core.Vec3
	direction  core.Vec3
	wavelength float64
	tagged     bool
}

// WithOrigin sets the centre of the launch disk (or the source point of a fan)
func WithOrigin(origin core.Vec3) BundleOption {
	return func(c *bundleConfig) { c.origin = origin }
}

// WithDirection sets the common propagation direction (default +z)
func WithDirection(direction core.Vec3) BundleOption {
	return func(c *bundleConfig) { c.direction = direction }
}

// WithWavelength tags every ray in the bundle
func WithWavelength(wavelength float64) BundleOption {
	return func(c *bundleConfig) {
		c.wavelength = wavelength
		c.tagged = true
	}
}

func newBundleConfig(opts []BundleOption) bundleConfig {
	c := bundleConfig{direction: core.NewVec3(0, 0, 1)}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c bundleConfig) ray(point, direction core.Vec3) (*core.Ray, error) {
	if c.tagged {
		return core.NewTaggedRay(point, direction, c.wavelength)
	}
	return core.NewRay(point, direction)
}

func validateRings(rings, raysPerRing int) error {
	if rings < 0 {
		return fmt.Errorf("rings must be non-negative, got %d", rings)
	}
	if rings > 0 && raysPerRing < 1 {
		return fmt.Errorf("rays per ring must be positive, got %d", raysPerRing)
	}
	return nil
}

// NewBundle samples a collimated disk of the given radius: one central ray
// plus ring i (1..rings) at radius*i/rings carrying i*raysPerRing rays at
// equal angular spacing. The disk lies in the transverse plane through the
// origin.
func NewBundle(radius float64, rings, raysPerRing int, opts ...BundleOption) ([]*core.Ray, error) {
	if radius < 0 {
		return nil, fmt.Errorf("bundle radius must be non-negative, got %g", radius)
	}
	if err := validateRings(rings, raysPerRing); err != nil {
		return nil, err
	}
	c := newBundleConfig(opts)

	rays := make([]*core.Ray, 0, 1+raysPerRing*rings*(rings+1)/2)
	centre, err := c.ray(c.origin, c.direction)
	if err != nil {
		return nil, err
	}
	rays = append(rays, centre)

	for i := 1; i <= rings; i++ {
		r := radius * float64(i) / float64(rings)
		count := i * raysPerRing
		for k := 0; k < count; k++ {
			phi := 2 * math.Pi * float64(k) / float64(count)
			offset := core.NewVec3(r*math.Cos(phi), r*math.Sin(phi), 0)
			ray, err := c.ray(c.origin.Add(offset), c.direction)
			if err != nil {
				return nil, err
			}
			rays = append(rays, ray)
		}
	}
	return rays, nil
}

// NewFan samples rays leaving a single point: the axial ray plus ring i
// (1..rings) tilted by halfAngle*i/rings from the bundle direction, carrying
// i*raysPerRing rays spread evenly in azimuth.
func NewFan(halfAngle float64, rings, raysPerRing int, opts ...BundleOption) ([]*core.Ray, error) {
	if halfAngle < 0 || halfAngle >= math.Pi/2 {
		return nil, fmt.Errorf("fan half angle must be in [0, pi/2), got %g", halfAngle)
	}
	if err := validateRings(rings, raysPerRing); err != nil {
		return nil, err
	}
	c := newBundleConfig(opts)
	if c.direction.IsZero() {
		return nil, core.ErrInvalidDirection
	}

	// Orthonormal basis around the bundle direction
	w := c.direction.Normalize()
	var helper core.Vec3
	if math.Abs(w.X) > 0.1 {
		helper = core.NewVec3(0, 1, 0)
	} else {
		helper = core.NewVec3(1, 0, 0)
	}
	u := helper.Cross(w).Normalize()
	v := w.Cross(u)

	rays := make([]*core.Ray, 0, 1+raysPerRing*rings*(rings+1)/2)
	axial, err := c.ray(c.origin, w)
	if err != nil {
		return nil, err
	}
	rays = append(rays, axial)

	for i := 1; i <= rings; i++ {
		theta := halfAngle * float64(i) / float64(rings)
		count := i * raysPerRing
		for k := 0; k < count; k++ {
			phi := 2 * math.Pi * float64(k) / float64(count)
			tilt := u.Multiply(math.Cos(phi)).Add(v.Multiply(math.Sin(phi))).Multiply(math.Sin(theta))
			ray, err := c.ray(c.origin, w.Multiply(math.Cos(theta)).Add(tilt))
			if err != nil {
				return nil, err
			}
			rays = append(rays, ray)
		}
	}
	return rays, nil
}
