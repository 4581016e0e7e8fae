package grid

import "fmt"

// Config fixes the geometry of an OccupancyGrid for its whole lifetime.
// All lengths are meters.
type Config struct {
	SizeX float64
	SizeY float64
	SizeZ float64

	// Resolution is the edge length of one cubic voxel.
	Resolution float64

	// Origin is the world coordinate of the minimum corner of cell (0,0,0).
	Origin Vec3

	// Frame names the coordinate system the grid lives in. Metadata only.
	Frame string

	// PropagationRadius is the largest distance the field tracks; cells
	// farther than this from every obstacle report exactly this value.
	PropagationRadius float64
}

func (c *Config) applyDefaults() {
	if c.Frame == "" {
		c.Frame = "world"
	}
	if c.PropagationRadius < c.Resolution {
		c.PropagationRadius = c.Resolution
	}
}

func (c *Config) validate() error {
	if c.Resolution <= 0 {
		return fmt.Errorf("grid: resolution must be positive, got %v", c.Resolution)
	}
	if c.SizeX <= 0 || c.SizeY <= 0 || c.SizeZ <= 0 {
		return fmt.Errorf("grid: world size must be positive on every axis, got (%v,%v,%v)", c.SizeX, c.SizeY, c.SizeZ)
	}
	return nil
}
