package scene

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"occugrid.dev/internal/grid"
)

// Config is the demo harness's scene description: the grid geometry plus
// where the obstacle data comes from.
type Config struct {
	Grid GridSpec `yaml:"grid"`

	// ObstacleFile is an optional whitespace-delimited obstacle list
	// (see LoadObstacleFile).
	ObstacleFile string `yaml:"obstacle_file,omitempty"`

	// CollisionMapFile is an optional JSON occupancy snapshot
	// (see LoadCollisionMap). Applied after the obstacle file, it
	// replaces the whole obstacle set per snapshot semantics.
	CollisionMapFile string `yaml:"collision_map_file,omitempty"`
}

type GridSpec struct {
	SizeX             float64    `yaml:"size_x"`
	SizeY             float64    `yaml:"size_y"`
	SizeZ             float64    `yaml:"size_z"`
	Resolution        float64    `yaml:"resolution"`
	Origin            [3]float64 `yaml:"origin"`
	Frame             string     `yaml:"frame"`
	PropagationRadius float64    `yaml:"propagation_radius"`
}

// Load reads a scene config; an empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scene config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scene config: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Grid: GridSpec{
			SizeX:             1.6,
			SizeY:             1.8,
			SizeZ:             1.4,
			Resolution:        0.02,
			Origin:            [3]float64{-0.6, -1.25, -0.05},
			Frame:             "base_footprint",
			PropagationRadius: 0.2,
		},
	}
}

func (c *Config) applyDefaults() {
	d := defaults()
	if c.Grid.SizeX == 0 {
		c.Grid.SizeX = d.Grid.SizeX
	}
	if c.Grid.SizeY == 0 {
		c.Grid.SizeY = d.Grid.SizeY
	}
	if c.Grid.SizeZ == 0 {
		c.Grid.SizeZ = d.Grid.SizeZ
	}
	if c.Grid.Resolution == 0 {
		c.Grid.Resolution = d.Grid.Resolution
	}
	if c.Grid.Frame == "" {
		c.Grid.Frame = d.Grid.Frame
	}
	if c.Grid.PropagationRadius == 0 {
		c.Grid.PropagationRadius = d.Grid.PropagationRadius
	}
}

func (c *Config) Validate() error {
	if c.Grid.Resolution <= 0 {
		return fmt.Errorf("grid.resolution must be positive")
	}
	if c.Grid.SizeX <= 0 || c.Grid.SizeY <= 0 || c.Grid.SizeZ <= 0 {
		return fmt.Errorf("grid sizes must be positive")
	}
	if c.Grid.PropagationRadius < 0 {
		return fmt.Errorf("grid.propagation_radius must not be negative")
	}
	return nil
}

// GridConfig converts the yaml spec into the grid's own config type.
func (c Config) GridConfig() grid.Config {
	return grid.Config{
		SizeX:             c.Grid.SizeX,
		SizeY:             c.Grid.SizeY,
		SizeZ:             c.Grid.SizeZ,
		Resolution:        c.Grid.Resolution,
		Origin:            grid.Vec3{X: c.Grid.Origin[0], Y: c.Grid.Origin[1], Z: c.Grid.Origin[2]},
		Frame:             c.Grid.Frame,
		PropagationRadius: c.Grid.PropagationRadius,
	}
}
