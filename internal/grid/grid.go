package grid

import "fmt"

// OccupancyGrid is the voxelized spatial index under the arm planner's
// collision checker: it tracks which cells of a bounded volume are
// occupied and keeps, per cell, the distance to the nearest occupied
// cell, queryable in O(1).
//
// Usage follows a strict phase separation: one writer builds the scene
// (AddCollisionCuboid / AddPointsToField / UpdateFromCollisionMap), calls
// Propagate once, and only then may any number of readers query
// concurrently. There is no internal locking; mutating while queries are
// in flight is not supported.
//
// Between a mutation and the next Propagate the field is stale: distance
// queries return the previous propagation's values. That staleness is a
// deliberate tradeoff so that inserting k obstacles costs one O(N)
// recompute, not k of them.
type OccupancyGrid struct {
	frame string
	field *voxelField
}

// New builds a grid with fixed dimensions, resolution and origin. These
// are immutable for the grid's lifetime; only occupancy changes later.
func New(cfg Config) (*OccupancyGrid, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &OccupancyGrid{
		frame: cfg.Frame,
		field: newVoxelField(cfg),
	}, nil
}

// GridSize returns the cell count per axis.
func (g *OccupancyGrid) GridSize() (nx, ny, nz int) {
	return g.field.nx, g.field.ny, g.field.nz
}

// WorldSize returns the tracked volume's extent in meters.
func (g *OccupancyGrid) WorldSize() (x, y, z float64) {
	return float64(g.field.nx) * g.field.res,
		float64(g.field.ny) * g.field.res,
		float64(g.field.nz) * g.field.res
}

func (g *OccupancyGrid) Origin() Vec3               { return g.field.origin }
func (g *OccupancyGrid) Resolution() float64        { return g.field.res }
func (g *OccupancyGrid) PropagationRadius() float64 { return g.field.propRadius }
func (g *OccupancyGrid) ReferenceFrame() string     { return g.frame }
func (g *OccupancyGrid) SetReferenceFrame(f string) { g.frame = f }

// WorldToGrid maps a world coordinate to the cell containing it, without
// clamping. Follow with IsInBounds before using the result as an index.
func (g *OccupancyGrid) WorldToGrid(wx, wy, wz float64) (ix, iy, iz int) {
	return g.field.worldToGrid(wx, wy, wz)
}

// GridToWorld returns the world coordinate of the cell's center.
func (g *OccupancyGrid) GridToWorld(ix, iy, iz int) (wx, wy, wz float64) {
	return g.field.gridToWorld(ix, iy, iz)
}

func (g *OccupancyGrid) IsInBounds(ix, iy, iz int) bool {
	return g.field.inBounds(ix, iy, iz)
}

// GetDistance returns the cached distance in meters from the cell's
// center to the nearest occupied cell, clamped at the propagation radius.
// Out-of-bounds indices are a caller contract violation and panic: a
// silent sentinel here has masked search-code bugs before.
func (g *OccupancyGrid) GetDistance(ix, iy, iz int) float64 {
	g.mustBeInBounds(ix, iy, iz, "distance")
	return g.field.distanceAt(g.field.index(ix, iy, iz))
}

// GetCell returns the distance quantized into resolution-sized buckets,
// floor-based: floor(GetDistance / resolution). Cost-map style consumers
// use this coarse view.
func (g *OccupancyGrid) GetCell(ix, iy, iz int) int {
	g.mustBeInBounds(ix, iy, iz, "cell")
	return int(g.field.distanceAt(g.field.index(ix, iy, iz)) / g.field.res)
}

// IsOccupied reports the cell's current occupancy flag. Unlike distances,
// occupancy reflects mutations immediately.
func (g *OccupancyGrid) IsOccupied(ix, iy, iz int) bool {
	g.mustBeInBounds(ix, iy, iz, "occupancy")
	return g.field.occupiedAt(g.field.index(ix, iy, iz))
}

func (g *OccupancyGrid) mustBeInBounds(ix, iy, iz int, what string) {
	if !g.field.inBounds(ix, iy, iz) {
		panic(fmt.Sprintf("grid: %s query out of bounds: (%d,%d,%d) not in (%d,%d,%d)",
			what, ix, iy, iz, g.field.nx, g.field.ny, g.field.nz))
	}
}

// OccupiedCount returns how many cells are currently marked occupied.
func (g *OccupancyGrid) OccupiedCount() int { return g.field.occupied }

// Consistent reports whether the distance field reflects the current
// occupancy set. False between a mutation and the next Propagate.
func (g *OccupancyGrid) Consistent() bool { return g.field.consistent }

// MarkOccupiedCells marks the given cells occupied; out-of-bounds entries
// are dropped. Distances stay stale until Propagate.
func (g *OccupancyGrid) MarkOccupiedCells(cells []Vec3i) {
	g.field.markOccupied(cells)
}

// Propagate recomputes the distance field for the current occupancy set.
// One O(N) sweep; call it once per batch of insertions.
func (g *OccupancyGrid) Propagate() {
	g.field.propagate()
}

// Reset clears all occupancy and restores every distance to the
// propagation radius.
func (g *OccupancyGrid) Reset() {
	g.field.reset()
}
