package scene

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"occugrid.dev/internal/grid"
)

// Obstacle is one cuboid record at the demo boundary: an id plus the box
// center and extents in the scene's reference frame, meters.
type Obstacle struct {
	ID     string
	Center grid.Vec3
	Size   grid.Vec3
}

// MinCorner returns the box's minimum corner, the form the grid's cuboid
// ingestion takes.
func (o Obstacle) MinCorner() grid.Vec3 {
	return grid.Vec3{
		X: o.Center.X - o.Size.X/2,
		Y: o.Center.Y - o.Size.Y/2,
		Z: o.Center.Z - o.Size.Z/2,
	}
}

// LoadObstacleFile parses the whitespace-delimited obstacle list format:
// a record count, then per record `id x y z size_x size_y size_z`. A
// malformed record is skipped (unreadable numbers zero-fill, truncated
// records end the list) with a logged warning; one bad record never
// aborts scene setup.
func LoadObstacleFile(path string, logger *log.Logger) ([]Obstacle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("obstacle file: %w", err)
	}
	return parseObstacles(string(b), logger)
}

func parseObstacles(text string, logger *log.Logger) ([]Obstacle, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("obstacle file: empty")
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("obstacle file: bad record count %q", fields[0])
	}

	const recordLen = 7 // id + 3 center + 3 size
	rest := fields[1:]
	obstacles := make([]Obstacle, 0, count)
	for i := 0; i < count; i++ {
		start := i * recordLen
		if start+recordLen > len(rest) {
			logger.Printf("obstacle file: declared %d records but data ends after %d; ignoring the rest", count, i)
			break
		}
		rec := rest[start : start+recordLen]
		o := Obstacle{ID: rec[0]}
		vals := [6]float64{}
		for j, s := range rec[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				logger.Printf("obstacle file: record %q: bad number %q, using 0", o.ID, s)
				v = 0
			}
			vals[j] = v
		}
		o.Center = grid.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}
		o.Size = grid.Vec3{X: vals[3], Y: vals[4], Z: vals[5]}
		if o.Size.X <= 0 || o.Size.Y <= 0 || o.Size.Z <= 0 {
			logger.Printf("obstacle file: record %q: non-positive size (%v,%v,%v), skipping",
				o.ID, o.Size.X, o.Size.Y, o.Size.Z)
			continue
		}
		obstacles = append(obstacles, o)
	}
	return obstacles, nil
}

// AddToGrid voxelizes every obstacle into the grid. It does not
// propagate; the caller batches that after the whole scene is in.
func AddToGrid(g *grid.OccupancyGrid, obstacles []Obstacle) {
	for _, o := range obstacles {
		min := o.MinCorner()
		g.AddCollisionCuboid(min, o.Size.X, o.Size.Y, o.Size.Z)
	}
}
