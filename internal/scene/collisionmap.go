package scene

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"occugrid.dev/internal/grid"
)

// collisionMapFile mirrors schemas/collision_map.schema.json: a full
// occupancy snapshot from a sensing source, points being the world
// coordinates of occupied cells.
type collisionMapFile struct {
	Frame  string      `json:"frame"`
	Points [][]float64 `json:"points"`
}

// LoadCollisionMap reads a JSON collision-map snapshot. Points that are
// not 3-vectors are skipped with a logged warning; the snapshot as a
// whole only fails on unreadable JSON or a missing frame.
func LoadCollisionMap(path string, logger *log.Logger) (grid.CollisionMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return grid.CollisionMap{}, fmt.Errorf("collision map: %w", err)
	}
	var raw collisionMapFile
	if err := json.Unmarshal(b, &raw); err != nil {
		return grid.CollisionMap{}, fmt.Errorf("collision map: %w", err)
	}
	if raw.Frame == "" {
		return grid.CollisionMap{}, fmt.Errorf("collision map: missing frame")
	}

	cm := grid.CollisionMap{
		Frame:  raw.Frame,
		Points: make([]grid.Vec3, 0, len(raw.Points)),
	}
	for i, p := range raw.Points {
		if len(p) != 3 {
			logger.Printf("collision map: point %d has %d components, skipping", i, len(p))
			continue
		}
		cm.Points = append(cm.Points, grid.Vec3{X: p[0], Y: p[1], Z: p[2]})
	}
	return cm, nil
}
