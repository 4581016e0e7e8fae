// Package viz serves the read-only visualization surface of the grid
// over HTTP/websocket: a bootstrap endpoint with the grid parameters and
// a streaming endpoint for occupied voxels, field statistics and
// distance-field slices. It only ever reads an already-propagated grid;
// nothing here mutates occupancy.
package viz

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"occugrid.dev/internal/encoding"
	"occugrid.dev/internal/fieldstats"
	"occugrid.dev/internal/grid"
	"occugrid.dev/internal/vizproto"
)

const (
	defaultVoxelsPerMsg = 1024
	maxVoxelsPerMsg     = 8192
	writeTimeout        = 5 * time.Second
	readTimeout         = 60 * time.Second
)

type Server struct {
	grid *grid.OccupancyGrid
	log  *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(g *grid.OccupancyGrid, logger *log.Logger) *Server {
	return &Server{
		grid: g,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.bootstrapMsg())
	}
}

func (s *Server) bootstrapMsg() vizproto.BootstrapMsg {
	nx, ny, nz := s.grid.GridSize()
	wx, wy, wz := s.grid.WorldSize()
	o := s.grid.Origin()
	return vizproto.BootstrapMsg{
		Type:              "BOOTSTRAP",
		ProtocolVersion:   vizproto.Version,
		Frame:             s.grid.ReferenceFrame(),
		Resolution:        s.grid.Resolution(),
		GridSize:          [3]int{nx, ny, nz},
		WorldSize:         [3]float64{wx, wy, wz},
		Origin:            o.ToArray(),
		PropagationRadius: s.grid.PropagationRadius(),
		OccupiedCount:     s.grid.OccupiedCount(),
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub vizproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			closePolicy(conn, "bad subscribe")
			return
		}
		if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != vizproto.Version {
			closePolicy(conn, "expected SUBSCRIBE")
			return
		}
		normalizeSubscribe(&sub)

		sid := fmt.Sprintf("V%d", s.nextID.Add(1))
		s.log.Printf("viz session %s: subscribed", sid)

		if err := s.writeJSON(conn, s.bootstrapMsg()); err != nil {
			return
		}
		if err := s.streamVoxels(conn, &sub); err != nil {
			return
		}
		if err := s.writeJSON(conn, summaryMsg(fieldstats.Summarize(s.grid))); err != nil {
			return
		}

		// Query loop: slice requests until the client hangs up.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if err := s.handleQuery(conn, msg); err != nil {
				break
			}
		}

		s.log.Printf("viz session %s: closed", sid)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
	}
}

// streamVoxels dumps the occupied set in batches. An empty set still
// produces one batch so the client always sees a done marker.
func (s *Server) streamVoxels(conn *websocket.Conn, sub *vizproto.SubscribeMsg) error {
	var voxels []grid.Vec3
	if sub.Region != nil {
		reg := sub.Region
		if reg.Dims[0] <= 0 || reg.Dims[1] <= 0 || reg.Dims[2] <= 0 {
			if err := s.writeError(conn, vizproto.ErrBadRegion, "region dims must be positive"); err != nil {
				return err
			}
			return fmt.Errorf("bad region")
		}
		voxels = s.grid.GetVoxelsInBox(
			grid.Vec3{X: reg.Center[0], Y: reg.Center[1], Z: reg.Center[2]},
			grid.Vec3{X: reg.Dims[0], Y: reg.Dims[1], Z: reg.Dims[2]},
		)
	} else {
		voxels = s.grid.OccupiedVoxels()
	}

	seq := 0
	for {
		n := len(voxels)
		if n > sub.MaxVoxelsPerMsg {
			n = sub.MaxVoxelsPerMsg
		}
		batch := vizproto.VoxelBatchMsg{
			Type:   "VOXELS",
			Seq:    seq,
			Voxels: make([][3]float64, 0, n),
			Done:   n == len(voxels),
		}
		for _, v := range voxels[:n] {
			batch.Voxels = append(batch.Voxels, v.ToArray())
		}
		if err := s.writeJSON(conn, batch); err != nil {
			return err
		}
		voxels = voxels[n:]
		seq++
		if len(voxels) == 0 {
			return nil
		}
	}
}

func (s *Server) handleQuery(conn *websocket.Conn, raw []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return s.writeError(conn, vizproto.ErrProtoBadRequest, "unreadable message")
	}
	switch head.Type {
	case "QUERY_SLICE":
		var q vizproto.QuerySliceMsg
		if err := json.Unmarshal(raw, &q); err != nil {
			return s.writeError(conn, vizproto.ErrProtoBadRequest, "unreadable QUERY_SLICE")
		}
		return s.sendSlice(conn, q.Z)
	default:
		return s.writeError(conn, vizproto.ErrUnknownType, "unknown message type "+head.Type)
	}
}

func (s *Server) sendSlice(conn *websocket.Conn, z int) error {
	nx, ny, nz := s.grid.GridSize()
	if z < 0 || z >= nz {
		return s.writeError(conn, vizproto.ErrSliceOOB,
			fmt.Sprintf("slice z=%d outside [0,%d)", z, nz))
	}
	buckets := make([]uint16, 0, nx*ny)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			b := s.grid.GetCell(ix, iy, z)
			if b > 0xFFFF {
				b = 0xFFFF
			}
			buckets = append(buckets, uint16(b))
		}
	}
	return s.writeJSON(conn, vizproto.DistanceSliceMsg{
		Type:       "DISTANCE_SLICE",
		Z:          z,
		NX:         nx,
		NY:         ny,
		BucketsRLE: encoding.EncodeRuns(buckets),
	})
}

func summaryMsg(s fieldstats.Summary) vizproto.FieldSummaryMsg {
	return vizproto.FieldSummaryMsg{
		Type:            "FIELD_SUMMARY",
		Cells:           s.Cells,
		Occupied:        s.Occupied,
		MinDistance:     s.MinDistance,
		MaxDistance:     s.MaxDistance,
		MeanDistance:    s.MeanDistance,
		MedianDistance:  s.MedianDistance,
		P10Distance:     s.P10Distance,
		ClampedFraction: s.ClampedFraction,
	}
}

func (s *Server) writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (s *Server) writeError(conn *websocket.Conn, code, msg string) error {
	return s.writeJSON(conn, vizproto.ErrorMsg{Type: "ERROR", Code: code, Message: msg})
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func normalizeSubscribe(sub *vizproto.SubscribeMsg) {
	if sub.MaxVoxelsPerMsg <= 0 {
		sub.MaxVoxelsPerMsg = defaultVoxelsPerMsg
	}
	if sub.MaxVoxelsPerMsg > maxVoxelsPerMsg {
		sub.MaxVoxelsPerMsg = maxVoxelsPerMsg
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
