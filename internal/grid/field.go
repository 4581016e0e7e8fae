package grid

import "math"

// voxelField is the dense backing store for one grid: occupancy flags plus
// the cached distance transform. It is created and owned by exactly one
// OccupancyGrid; no reference to the arrays ever leaves this package.
type voxelField struct {
	nx, ny, nz int
	res        float64
	origin     Vec3
	propRadius float64

	// maxSqCells is the squared propagation radius in cell units. It is
	// both the clamp for stored distances and the bucket count for the
	// wavefront.
	maxSqCells int

	// occ is the current occupancy set. It mutates immediately on every
	// mark call; sqDist/closest only change during propagation.
	occ []bool

	// sqDist holds, per cell, the squared cell-unit distance to the
	// nearest occupied cell as of the last propagation, clamped at
	// maxSqCells. closest holds the flat index of that nearest occupied
	// cell, or noObstacle when none is within the propagation radius.
	sqDist  []int32
	closest []int32

	occupied int // number of cells currently marked occupied

	// consistent is false between an occupancy mutation and the next
	// propagation. Queries while stale return the previous propagation's
	// values.
	consistent bool
}

const noObstacle = int32(-1)

func newVoxelField(cfg Config) *voxelField {
	nx := cellsPerAxis(cfg.SizeX, cfg.Resolution)
	ny := cellsPerAxis(cfg.SizeY, cfg.Resolution)
	nz := cellsPerAxis(cfg.SizeZ, cfg.Resolution)
	rc := int(math.Ceil(cfg.PropagationRadius / cfg.Resolution))
	f := &voxelField{
		nx: nx, ny: ny, nz: nz,
		res:        cfg.Resolution,
		origin:     cfg.Origin,
		propRadius: cfg.PropagationRadius,
		maxSqCells: rc * rc,
		occ:        make([]bool, nx*ny*nz),
		sqDist:     make([]int32, nx*ny*nz),
		closest:    make([]int32, nx*ny*nz),
	}
	f.reset()
	return f
}

func cellsPerAxis(size, res float64) int {
	n := int(math.Round(size / res))
	if n < 1 {
		n = 1
	}
	return n
}

func (f *voxelField) index(ix, iy, iz int) int {
	// x fastest, then y, then z
	return ix + f.nx*(iy+f.ny*iz)
}

func (f *voxelField) cellAt(idx int) (int, int, int) {
	ix := idx % f.nx
	rest := idx / f.nx
	return ix, rest % f.ny, rest / f.ny
}

func (f *voxelField) inBounds(ix, iy, iz int) bool {
	return ix >= 0 && ix < f.nx &&
		iy >= 0 && iy < f.ny &&
		iz >= 0 && iz < f.nz
}

// worldToGrid maps a world coordinate to the cell containing it. The
// result is NOT clamped: out-of-volume coordinates yield out-of-range
// indices, and callers must check inBounds before indexing.
func (f *voxelField) worldToGrid(wx, wy, wz float64) (int, int, int) {
	ix := int(math.Floor((wx - f.origin.X) / f.res))
	iy := int(math.Floor((wy - f.origin.Y) / f.res))
	iz := int(math.Floor((wz - f.origin.Z) / f.res))
	return ix, iy, iz
}

// gridToWorld returns the world coordinate of the cell's center, so it is
// the exact left inverse of worldToGrid for every valid cell.
func (f *voxelField) gridToWorld(ix, iy, iz int) (float64, float64, float64) {
	wx := f.origin.X + (float64(ix)+0.5)*f.res
	wy := f.origin.Y + (float64(iy)+0.5)*f.res
	wz := f.origin.Z + (float64(iz)+0.5)*f.res
	return wx, wy, wz
}

// reset clears every cell to unoccupied and every distance to the
// propagation radius. The field is Consistent afterwards: an empty
// occupancy set and an all-far distance field agree.
func (f *voxelField) reset() {
	for i := range f.occ {
		f.occ[i] = false
		f.sqDist[i] = int32(f.maxSqCells)
		f.closest[i] = noObstacle
	}
	f.occupied = 0
	f.consistent = true
}

// markOccupied sets the occupancy flag for each in-bounds cell.
// Out-of-bounds cells are dropped without error: obstacles partially
// outside the tracked volume are routine and only their in-bounds part
// matters. The field turns stale only if some flag actually flipped.
func (f *voxelField) markOccupied(cells []Vec3i) {
	for _, c := range cells {
		if !f.inBounds(c.X, c.Y, c.Z) {
			continue
		}
		idx := f.index(c.X, c.Y, c.Z)
		if f.occ[idx] {
			continue
		}
		f.occ[idx] = true
		f.occupied++
		f.consistent = false
	}
}

func (f *voxelField) occupiedAt(idx int) bool { return f.occ[idx] }

// distanceAt converts the cached squared cell distance to meters, clamped
// at the propagation radius.
func (f *voxelField) distanceAt(idx int) float64 {
	sq := f.sqDist[idx]
	if sq == 0 {
		return 0
	}
	d := math.Sqrt(float64(sq)) * f.res
	if d > f.propRadius {
		return f.propRadius
	}
	return d
}
