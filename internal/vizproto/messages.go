// Package vizproto defines the JSON messages of the read-only
// visualization websocket. JSON Schemas for every message live under
// schemas/ and are validated against samples in tests.
package vizproto

const Version = "1.0"

// SubscribeMsg opens a viz session. An absent region means the whole
// tracked volume.
type SubscribeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Region          *RegionSpec `json:"region,omitempty"`
	MaxVoxelsPerMsg int         `json:"max_voxels_per_msg,omitempty"`
}

// RegionSpec is an axis-aligned box given by center and extents, meters.
type RegionSpec struct {
	Center [3]float64 `json:"center"`
	Dims   [3]float64 `json:"dims"`
}

// BootstrapMsg carries the grid's immutable parameters.
type BootstrapMsg struct {
	Type              string     `json:"type"`
	ProtocolVersion   string     `json:"protocol_version"`
	Frame             string     `json:"frame"`
	Resolution        float64    `json:"resolution"`
	GridSize          [3]int     `json:"grid_size"`
	WorldSize         [3]float64 `json:"world_size"`
	Origin            [3]float64 `json:"origin"`
	PropagationRadius float64    `json:"propagation_radius"`
	OccupiedCount     int        `json:"occupied_count"`
}

// VoxelBatchMsg streams occupied voxel centers; Done marks the last
// batch of the dump.
type VoxelBatchMsg struct {
	Type   string       `json:"type"`
	Seq    int          `json:"seq"`
	Voxels [][3]float64 `json:"voxels"`
	Done   bool         `json:"done"`
}

// FieldSummaryMsg carries distance-field statistics for the whole grid.
type FieldSummaryMsg struct {
	Type            string  `json:"type"`
	Cells           int     `json:"cells"`
	Occupied        int     `json:"occupied"`
	MinDistance     float64 `json:"min_distance"`
	MaxDistance     float64 `json:"max_distance"`
	MeanDistance    float64 `json:"mean_distance"`
	MedianDistance  float64 `json:"median_distance"`
	P10Distance     float64 `json:"p10_distance"`
	ClampedFraction float64 `json:"clamped_fraction"`
}

// QuerySliceMsg asks for one z-slice of the quantized distance field.
type QuerySliceMsg struct {
	Type string `json:"type"`
	Z    int    `json:"z"`
}

// DistanceSliceMsg answers a slice query. Buckets are floor(distance /
// resolution) per cell, x fastest then y, RLE-encoded (see
// internal/encoding).
type DistanceSliceMsg struct {
	Type       string `json:"type"`
	Z          int    `json:"z"`
	NX         int    `json:"nx"`
	NY         int    `json:"ny"`
	BucketsRLE string `json:"buckets_rle"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
