// Package fieldstats computes summary statistics over a propagated
// distance field. The demo report, the run index and the viz
// FIELD_SUMMARY message all consume the same Summary.
package fieldstats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"occugrid.dev/internal/grid"
)

type Summary struct {
	Cells    int
	Occupied int

	MinDistance    float64
	MaxDistance    float64
	MeanDistance   float64
	MedianDistance float64
	P10Distance    float64

	// ClampedFraction is the share of cells whose distance sits at the
	// propagation radius, i.e. cells the wavefront never reached.
	ClampedFraction float64
}

// Summarize walks the whole grid once. Not a hot path; meant for
// post-propagation reporting.
func Summarize(g *grid.OccupancyGrid) Summary {
	nx, ny, nz := g.GridSize()
	pr := g.PropagationRadius()

	dists := make([]float64, 0, nx*ny*nz)
	clamped := 0
	for iz := 0; iz < nz; iz++ {
		for iy := 0; iy < ny; iy++ {
			for ix := 0; ix < nx; ix++ {
				d := g.GetDistance(ix, iy, iz)
				if d >= pr {
					clamped++
				}
				dists = append(dists, d)
			}
		}
	}
	sort.Float64s(dists)

	s := Summary{
		Cells:    len(dists),
		Occupied: g.OccupiedCount(),
	}
	if len(dists) == 0 {
		return s
	}
	s.MinDistance = dists[0]
	s.MaxDistance = dists[len(dists)-1]
	s.MeanDistance = stat.Mean(dists, nil)
	s.MedianDistance = stat.Quantile(0.5, stat.Empirical, dists, nil)
	s.P10Distance = stat.Quantile(0.1, stat.Empirical, dists, nil)
	s.ClampedFraction = float64(clamped) / float64(len(dists))
	return s
}
