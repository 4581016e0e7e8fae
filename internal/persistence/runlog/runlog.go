// Package runlog records what happened to a planning scene as it was
// built: one JSONL entry per ingestion or propagation step, compressed
// with zstd. The demo harness owns this; the grid itself never touches
// files.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Event kinds.
const (
	KindSceneLoad    = "scene_load"
	KindCuboid       = "cuboid"
	KindPoints       = "points"
	KindCollisionMap = "collision_map"
	KindPropagate    = "propagate"
	KindSummary      = "summary"
)

type Event struct {
	Time       string  `json:"time"`
	Kind       string  `json:"kind"`
	ObstacleID string  `json:"obstacle_id,omitempty"`
	Cells      int     `json:"cells,omitempty"`
	DurationMS float64 `json:"duration_ms,omitempty"`
	Detail     string  `json:"detail,omitempty"`
}

// Logger writes one run's events to <dir>/<runID>.jsonl.zst.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func New(dir, runID string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.jsonl.zst", runID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Logger{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

// Write stamps and appends one event.
func (l *Logger) Write(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return fmt.Errorf("runlog: closed")
	}
	if ev.Time == "" {
		ev.Time = time.Now().UTC().Format(time.RFC3339Nano)
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	_ = l.w.Flush()
	err := l.enc.Close()
	_ = l.f.Close()
	l.w = nil
	l.enc = nil
	l.f = nil
	return err
}
