package grid

// Vec3 is a world-space vector in meters, expressed in the grid's
// reference frame.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) ToArray() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// Vec3i identifies one voxel by its integer cell coordinates.
type Vec3i struct {
	X, Y, Z int
}

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

// CollisionMap is a full occupancy snapshot from a sensing source: the
// world-space points of every occupied cell it observed, plus the frame
// they are expressed in. The frame is carried as metadata only; nothing
// in the grid interprets it.
type CollisionMap struct {
	Frame  string
	Points []Vec3
}
