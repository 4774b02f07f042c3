package core

import "math"

// unitTolerance bounds how far a normalized direction may stray from unit length
const unitTolerance = 1e-9

// Ray is an optical ray with a trail of vertices and the unit direction
// leaving each vertex. The last entry is the ray's current state.
type Ray struct {
	vertices   []Vec3
	directions []Vec3
	wavelength float64
	tagged     bool
	terminated bool
}

// unitDirection normalizes d, rejecting anything that does not come out as a
// finite unit vector
func unitDirection(d Vec3) (Vec3, error) {
	if d.IsZero() || !d.IsFinite() {
		return Vec3{}, ErrInvalidDirection
	}
	u := d.Normalize()
	if !u.IsFinite() || math.Abs(u.Length()-1) > unitTolerance {
		return Vec3{}, ErrInvalidDirection
	}
	return u, nil
}

// NewRay creates an untagged ray starting at point travelling along direction.
// The direction is normalized; zero, NaN and infinite directions are rejected.
func NewRay(point, direction Vec3) (*Ray, error) {
	u, err := unitDirection(direction)
	if err != nil {
		return nil, err
	}
	return &Ray{
		vertices:   []Vec3{point},
		directions: []Vec3{u},
	}, nil
}

// NewTaggedRay creates a ray carrying a wavelength in metres. The wavelength
// must be positive and finite.
func NewTaggedRay(point, direction Vec3, wavelength float64) (*Ray, error) {
	if !(wavelength > 0) || math.IsInf(wavelength, 0) {
		return nil, ErrInvalidWavelength
	}
	r, err := NewRay(point, direction)
	if err != nil {
		return nil, err
	}
	r.wavelength = wavelength
	r.tagged = true
	return r, nil
}

// Position returns the most recently appended vertex
func (r *Ray) Position() Vec3 {
	return r.vertices[len(r.vertices)-1]
}

// Direction returns the most recently appended direction
func (r *Ray) Direction() Vec3 {
	return r.directions[len(r.directions)-1]
}

// Wavelength returns the wavelength tag and whether the ray carries one
func (r *Ray) Wavelength() (float64, bool) {
	return r.wavelength, r.tagged
}

// Append adds a vertex and the direction leaving it.
// Terminated rays are left untouched and report ErrTerminated.
func (r *Ray) Append(point, direction Vec3) error {
	if r.terminated {
		return ErrTerminated
	}
	u, err := unitDirection(direction)
	if err != nil {
		return err
	}
	r.vertices = append(r.vertices, point)
	r.directions = append(r.directions, u)
	return nil
}

// Terminate stops the ray. It cannot be undone.
func (r *Ray) Terminate() {
	r.terminated = true
}

// Terminated reports whether the ray has been stopped
func (r *Ray) Terminated() bool {
	return r.terminated
}

// Len returns the number of recorded vertices
func (r *Ray) Len() int {
	return len(r.vertices)
}

// Vertices returns a copy of the vertex history
func (r *Ray) Vertices() []Vec3 {
	return append([]Vec3(nil), r.vertices...)
}

// Directions returns a copy of the direction history
func (r *Ray) Directions() []Vec3 {
	return append([]Vec3(nil), r.directions...)
}

// PositionAt returns the transverse coordinates where the trajectory crosses
// the plane at z. The chronologically first segment bracketing z wins.
func (r *Ray) PositionAt(z float64) (x, y float64, ok bool) {
	return r.PositionAtFrom(z, 0)
}

// PositionAtFrom is PositionAt restricted to segments starting at vertex
// index from or later.
func (r *Ray) PositionAtFrom(z float64, from int) (x, y float64, ok bool) {
	if from < 0 {
		from = 0
	}
	if len(r.vertices) == 1 && from == 0 {
		if v := r.vertices[0]; v.Z == z {
			return v.X, v.Y, true
		}
		return 0, 0, false
	}

	for i := from; i+1 < len(r.vertices); i++ {
		a, b := r.vertices[i], r.vertices[i+1]
		if z < min(a.Z, b.Z) || z > max(a.Z, b.Z) {
			continue
		}
		// Exact endpoint hits (and segments with no axial extent) are
		// returned verbatim rather than interpolated.
		if z == a.Z {
			return a.X, a.Y, true
		}
		if z == b.Z {
			return b.X, b.Y, true
		}
		t := (z - a.Z) / (b.Z - a.Z)
		return a.X + t*(b.X-a.X), a.Y + t*(b.Y-a.Y), true
	}
	return 0, 0, false
}

// Copy returns an independent deep copy of the ray
func (r *Ray) Copy() *Ray {
	return &Ray{
		vertices:   r.Vertices(),
		directions: r.Directions(),
		wavelength: r.wavelength,
		tagged:     r.tagged,
		terminated: r.terminated,
	}
}
