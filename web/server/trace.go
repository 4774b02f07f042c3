package server

import (
	"fmt"
	"net/http"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/element"
	"github.com/hectorBrown/icl-y2-project/pkg/lens"
	"github.com/hectorBrown/icl-y2-project/pkg/optics"
)

// TracedRay is one ray's recorded path
type TracedRay struct {
	Vertices   [][3]float64 `json:"vertices"`
	Terminated bool         `json:"terminated"`
	Position   *[2]float64  `json:"position,omitempty"` // Transverse (x, y) on the plane, when reached
}

// TraceResponse is the JSON body returned by /api/trace
type TraceResponse struct {
	Lens       lens.Info   `json:"lens"`
	Plane      *float64    `json:"plane,omitempty"`
	Wavelength float64     `json:"wavelength,omitempty"`
	Failed     int         `json:"failed"`
	Rays       []TracedRay `json:"rays"`
}

// handleTrace propagates a collimated bundle and returns every ray path
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req, err := parseBundleRequest(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	wavelength, err := parseFloatParam(query, "wavelength", 0, 0, 1e-5)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	var plane *float64
	if query.Get("plane") != "" {
		z, err := parseFloatParam(query, "plane", 0, -100, 100)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
			return
		}
		plane = &z
	}

	sys, info, status, err := s.resolveSystem(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	opts := []optics.BundleOption{optics.WithOrigin(core.NewVec3(0, 0, sys.LaunchZ()))}
	if wavelength > 0 {
		opts = append(opts, optics.WithWavelength(wavelength))
	}
	rays, err := optics.NewBundle(req.Radius, req.Rings, req.RaysPerRing, opts...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trace := sys.Copy()
	if plane != nil {
		trace.Append(element.NewOutputPlane(*plane))
	}
	failed, err := trace.PropagateBundleContext(r.Context(), rays, s.analysis.Workers)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := TraceResponse{
		Lens:       info,
		Plane:      plane,
		Wavelength: wavelength,
		Failed:     failed,
		Rays:       make([]TracedRay, len(rays)),
	}
	for i, ray := range rays {
		vertices := ray.Vertices()
		traced := TracedRay{
			Vertices:   make([][3]float64, len(vertices)),
			Terminated: ray.Terminated(),
		}
		for j, v := range vertices {
			traced.Vertices[j] = [3]float64{v.X, v.Y, v.Z}
		}
		if plane != nil && !ray.Terminated() && ray.Len() == trace.Len()+1 {
			if x, y, ok := ray.PositionAtFrom(*plane, ray.Len()-2); ok {
				traced.Position = &[2]float64{x, y}
			}
		}
		resp.Rays[i] = traced
	}

	writeJSON(w, http.StatusOK, resp)
}
