package grid

// Geometry ingestion: converts cuboids, point clouds and collision-map
// snapshots into cell sets for the voxel field. Everything here clips
// silently at the volume boundary.

// AddCollisionCuboid marks every cell whose center lies inside the
// axis-aligned box spanning [origin, origin+size). Portions outside the
// tracked volume are clipped. Distances stay stale until Propagate.
func (g *OccupancyGrid) AddCollisionCuboid(origin Vec3, sizeX, sizeY, sizeZ float64) {
	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return
	}
	g.field.markOccupied(g.cellsInBox(origin, Vec3{X: sizeX, Y: sizeY, Z: sizeZ}, false))
}

// AddPointsToField marks the cell containing each point; out-of-bounds
// points are dropped. Propagation is the caller's explicit batched step,
// so a scan of k points costs one recompute, not k.
func (g *OccupancyGrid) AddPointsToField(points []Vec3) {
	cells := make([]Vec3i, 0, len(points))
	for _, p := range points {
		ix, iy, iz := g.field.worldToGrid(p.X, p.Y, p.Z)
		if !g.field.inBounds(ix, iy, iz) {
			continue
		}
		cells = append(cells, Vec3i{X: ix, Y: iy, Z: iz})
	}
	g.field.markOccupied(cells)
}

// UpdateFromCollisionMap replaces the whole obstacle set with the given
// snapshot and repropagates. A sensor scan is a fresh full view of the
// environment, not a delta: nothing from the previous scan survives.
func (g *OccupancyGrid) UpdateFromCollisionMap(cm CollisionMap) {
	g.field.reset()
	g.AddPointsToField(cm.Points)
	g.field.propagate()
}

// GetVoxelsInBox returns the world coordinates (cell centers) of every
// occupied cell whose center lies inside the axis-aligned box given by
// its center and extents. Visualization and overlap tests use this; it is
// not a hot path.
func (g *OccupancyGrid) GetVoxelsInBox(center Vec3, dims Vec3) []Vec3 {
	min := Vec3{
		X: center.X - dims.X/2,
		Y: center.Y - dims.Y/2,
		Z: center.Z - dims.Z/2,
	}
	var voxels []Vec3
	for _, c := range g.cellsInBox(min, dims, true) {
		wx, wy, wz := g.field.gridToWorld(c.X, c.Y, c.Z)
		voxels = append(voxels, Vec3{X: wx, Y: wy, Z: wz})
	}
	return voxels
}

// OccupiedVoxels returns the world coordinates of every occupied cell.
// Bulk dump for visualization.
func (g *OccupancyGrid) OccupiedVoxels() []Vec3 {
	voxels := make([]Vec3, 0, g.field.occupied)
	for idx, occ := range g.field.occ {
		if !occ {
			continue
		}
		ix, iy, iz := g.field.cellAt(idx)
		wx, wy, wz := g.field.gridToWorld(ix, iy, iz)
		voxels = append(voxels, Vec3{X: wx, Y: wy, Z: wz})
	}
	return voxels
}

// cellsInBox enumerates in-bounds cells whose center falls inside the box
// [min, min+dims), optionally keeping only occupied ones. The candidate
// index range comes from the unclamped transform and is clipped to the
// volume, so boxes anywhere relative to the grid are safe.
func (g *OccupancyGrid) cellsInBox(min Vec3, dims Vec3, occupiedOnly bool) []Vec3i {
	f := g.field
	lox, loy, loz := f.worldToGrid(min.X, min.Y, min.Z)
	hix, hiy, hiz := f.worldToGrid(min.X+dims.X, min.Y+dims.Y, min.Z+dims.Z)

	lox, hix = clampRange(lox, hix, f.nx)
	loy, hiy = clampRange(loy, hiy, f.ny)
	loz, hiz = clampRange(loz, hiz, f.nz)

	var cells []Vec3i
	for iz := loz; iz <= hiz; iz++ {
		for iy := loy; iy <= hiy; iy++ {
			for ix := lox; ix <= hix; ix++ {
				cx, cy, cz := f.gridToWorld(ix, iy, iz)
				if cx < min.X || cx >= min.X+dims.X ||
					cy < min.Y || cy >= min.Y+dims.Y ||
					cz < min.Z || cz >= min.Z+dims.Z {
					continue
				}
				if occupiedOnly && !f.occupiedAt(f.index(ix, iy, iz)) {
					continue
				}
				cells = append(cells, Vec3i{X: ix, Y: iy, Z: iz})
			}
		}
	}
	return cells
}

func clampRange(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}
