package core

import "errors"

// Propagation and analysis errors. All of them are local to one ray or one
// analysis call; callers decide whether to keep going.
var (
	// ErrInvalidDirection is returned when a ray is given a direction that
	// cannot be normalized: zero, NaN or infinite.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInvalidWavelength is returned when a ray is tagged with a wavelength
	// that is not a positive finite number.
	ErrInvalidWavelength = errors.New("invalid wavelength")

	// ErrTerminated is returned when propagating a ray that has already been terminated.
	ErrTerminated = errors.New("ray terminated")

	// ErrNoIntersection means the surface was behind the ray, missed, or outside its aperture.
	ErrNoIntersection = errors.New("no intersection")

	// ErrTotalInternalReflection means Snell's law had no real solution. The ray is terminated.
	ErrTotalInternalReflection = errors.New("total internal reflection")

	// ErrAbsorbed means a reflector was struck on its non-reflective face. The ray is terminated.
	ErrAbsorbed = errors.New("absorbed by non-reflective face")

	// ErrNonConvergent means the focus search found no axial crossing.
	ErrNonConvergent = errors.New("system does not converge")

	// ErrNoSamples means no ray of a bundle reached the measurement plane.
	ErrNoSamples = errors.New("no rays reached the measurement plane")
)
