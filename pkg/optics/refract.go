package optics

import (
	"math"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
)

// Refract bends a unit incident direction through a surface using Snell's law.
// The unit normal must oppose the incident ray. n1 is the index on the incident
// side, n2 on the far side. The second return value is false on total internal
// reflection.
func Refract(incident, normal core.Vec3, n1, n2 float64) (core.Vec3, bool) {
	// Angle of incidence; clamp guards acos against rounding just past 1
	cosI := math.Max(-1, math.Min(1, -incident.Dot(normal)))
	thetaI := math.Acos(cosI)
	sinI := math.Sin(thetaI)

	if sinI > n2/n1 {
		return core.Vec3{}, false
	}

	thetaT := math.Asin(math.Min(1, n1/n2*sinI))
	if thetaT == 0 {
		// Normal incidence: the general form below is 0/0
		return normal.Negate(), true
	}

	// The refracted ray lies in the plane of incidence, so it is a linear
	// combination of normal and incident with the tangential part scaled by
	// sin(thetaT)/sin(thetaI).
	b := math.Abs(math.Sin(thetaT) / sinI)
	a := b*math.Cos(thetaI) - math.Cos(thetaT)
	return normal.Multiply(a).Add(incident.Multiply(b)).Normalize(), true
}

// Reflect mirrors a direction about a unit normal: r = v - 2*dot(v,n)*n
func Reflect(incident, normal core.Vec3) core.Vec3 {
	return incident.Subtract(normal.Multiply(2 * incident.Dot(normal)))
}
