package grid

// Distance propagation: a full-recompute vector distance transform. Every
// propagation restarts from scratch and runs a multi-source wavefront from
// all occupied cells simultaneously, expanding over the 26-connected
// neighborhood in buckets of increasing squared cell distance. Each cell
// remembers which occupied cell is its nearest source, so the value it
// ends up with is the true Euclidean distance between the two cell
// centers. Recomputing from scratch keeps the cost at one O(N) sweep per
// batch of insertions instead of per obstacle, and makes repeated
// propagation against an unchanged occupancy set exactly idempotent.

// neighborOffsets is the 26-connected adjacency (all cells sharing a
// face, edge or corner).
var neighborOffsets = buildNeighborOffsets()

func buildNeighborOffsets() [][3]int {
	offs := make([][3]int, 0, 26)
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				offs = append(offs, [3]int{dx, dy, dz})
			}
		}
	}
	return offs
}

// propagate recomputes the distance transform for the current occupancy
// set and marks the field Consistent.
func (f *voxelField) propagate() {
	for i := range f.sqDist {
		f.sqDist[i] = int32(f.maxSqCells)
		f.closest[i] = noObstacle
	}

	// buckets[d2] holds the cells whose tentative squared distance is d2.
	// Bucket 0 seeds the wavefront with every occupied cell at once.
	buckets := make([][]int32, f.maxSqCells+1)
	for i, occ := range f.occ {
		if occ {
			f.sqDist[i] = 0
			f.closest[i] = int32(i)
			buckets[0] = append(buckets[0], int32(i))
		}
	}

	for d2 := 0; d2 < len(buckets); d2++ {
		for qi := 0; qi < len(buckets[d2]); qi++ {
			idx := buckets[d2][qi]
			if int(f.sqDist[idx]) != d2 {
				// Superseded by a closer source after it was queued.
				continue
			}
			cx, cy, cz := f.cellAt(int(idx))
			ox, oy, oz := f.cellAt(int(f.closest[idx]))
			for _, off := range neighborOffsets {
				px := cx + off[0]
				py := cy + off[1]
				pz := cz + off[2]
				if !f.inBounds(px, py, pz) {
					continue
				}
				dx := px - ox
				dy := py - oy
				dz := pz - oz
				nd2 := dx*dx + dy*dy + dz*dz
				nidx := f.index(px, py, pz)
				if nd2 < int(f.sqDist[nidx]) {
					f.sqDist[nidx] = int32(nd2)
					f.closest[nidx] = f.closest[idx]
					buckets[nd2] = append(buckets[nd2], int32(nidx))
				}
			}
		}
	}

	f.consistent = true
}
