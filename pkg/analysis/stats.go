package analysis

import (
	"fmt"
	"math"
)

// SpotStats summarises where a bundle crosses the measurement plane
type SpotStats struct {
	Count     int     // Rays that reached the plane
	Excluded  int     // Rays with no position on the plane
	RMS       float64 // Root-mean-square distance from the optical axis
	MaxRadius float64 // Largest distance from the optical axis
	CentroidX float64 // Mean transverse x
	CentroidY float64 // Mean transverse y
}

func (s SpotStats) String() string {
	return fmt.Sprintf("rms=%.6g max=%.6g centroid=(%.3g, %.3g) rays=%d excluded=%d",
		s.RMS, s.MaxRadius, s.CentroidX, s.CentroidY, s.Count, s.Excluded)
}

type spotAccumulator struct {
	sumX, sumY float64
	sumSq      float64
	maxSq      float64
	count      int
	excluded   int
}

func (acc *spotAccumulator) add(x, y float64) {
	r2 := x*x + y*y
	acc.sumX += x
	acc.sumY += y
	acc.sumSq += r2
	acc.maxSq = math.Max(acc.maxSq, r2)
	acc.count++
}

func (acc *spotAccumulator) exclude() {
	acc.excluded++
}

func (acc *spotAccumulator) stats() SpotStats {
	if acc.count == 0 {
		return SpotStats{Excluded: acc.excluded}
	}
	n := float64(acc.count)
	return SpotStats{
		Count:     acc.count,
		Excluded:  acc.excluded,
		RMS:       math.Sqrt(acc.sumSq / n),
		MaxRadius: math.Sqrt(acc.maxSq),
		CentroidX: acc.sumX / n,
		CentroidY: acc.sumY / n,
	}
}
