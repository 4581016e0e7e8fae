package runlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestLogger_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "run_001")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events := []Event{
		{Kind: KindSceneLoad, Detail: "tabletop.env"},
		{Kind: KindCuboid, ObstacleID: "table", Cells: 480},
		{Kind: KindPropagate, DurationMS: 12.5},
	}
	for _, ev := range events {
		if err := l.Write(ev); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Write(Event{Kind: KindSummary}); err == nil {
		t.Fatalf("write after close must fail")
	}

	f, err := os.Open(filepath.Join(dir, "run_001.jsonl.zst"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var got []Event
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("unmarshal %q: %v", sc.Text(), err)
		}
		got = append(got, ev)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != len(events) {
		t.Fatalf("events: got %d want %d", len(got), len(events))
	}
	for i := range events {
		if got[i].Kind != events[i].Kind {
			t.Fatalf("event %d kind: got %q want %q", i, got[i].Kind, events[i].Kind)
		}
		if got[i].Time == "" {
			t.Fatalf("event %d missing timestamp", i)
		}
	}
	if got[1].ObstacleID != "table" || got[1].Cells != 480 {
		t.Fatalf("cuboid event: %+v", got[1])
	}
	if got[2].DurationMS != 12.5 {
		t.Fatalf("propagate event: %+v", got[2])
	}
}
