package server

import (
	"fmt"
	"net/http"

	"github.com/hectorBrown/icl-y2-project/pkg/analysis"
	"github.com/hectorBrown/icl-y2-project/pkg/lens"
)

// consoleBuffer is the number of analysis log lines kept per request
const consoleBuffer = 64

// AnalyzeResponse is the JSON body returned by /api/analyze
type AnalyzeResponse struct {
	Lens          lens.Info        `json:"lens"`
	Elements      []string         `json:"elements"`
	Focus         float64          `json:"focus"`
	ParaxialScale float64          `json:"paraxialScale"`
	LaunchZ       float64          `json:"launchZ"`
	Radius        float64          `json:"radius"`
	Spot          Spot             `json:"spot"`
	Console       []ConsoleMessage `json:"console"`
}

// Spot mirrors analysis.SpotStats for JSON
type Spot struct {
	Count     int     `json:"count"`
	Excluded  int     `json:"excluded"`
	RMS       float64 `json:"rms"`
	MaxRadius float64 `json:"maxRadius"`
	CentroidX float64 `json:"centroidX"`
	CentroidY float64 `json:"centroidY"`
}

func newSpot(stats analysis.SpotStats) Spot {
	return Spot{
		Count:     stats.Count,
		Excluded:  stats.Excluded,
		RMS:       stats.RMS,
		MaxRadius: stats.MaxRadius,
		CentroidX: stats.CentroidX,
		CentroidY: stats.CentroidY,
	}
}

// handleAnalyze finds the focus of a lens and measures its spot there
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := parseBundleRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sys, info, status, err := s.resolveSystem(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	console := make(chan ConsoleMessage, consoleBuffer)
	config := s.analysis
	config.Rings = req.Rings
	config.RaysPerRing = req.RaysPerRing
	a := analysis.NewAnalyzer(config, NewWebLogger(s.nextRequestID("analyze"), console))

	focus, err := a.FindFocus(sys)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	stats, err := a.SpotStatsContext(r.Context(), sys, req.Radius, focus)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	elements := make([]string, 0, sys.Len())
	for _, e := range sys.Elements() {
		elements = append(elements, e.String())
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Lens:          info,
		Elements:      elements,
		Focus:         focus,
		ParaxialScale: sys.ParaxialScale(),
		LaunchZ:       sys.LaunchZ(),
		Radius:        req.Radius,
		Spot:          newSpot(stats),
		Console:       drainConsole(console),
	})
}
