package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"occugrid.dev/internal/fieldstats"
	"occugrid.dev/internal/grid"
	"occugrid.dev/internal/persistence/rundb"
	"occugrid.dev/internal/persistence/runlog"
	"occugrid.dev/internal/scene"
	"occugrid.dev/internal/transport/viz"
)

func main() {
	var (
		addr         = flag.String("addr", "127.0.0.1:8080", "http listen address (empty for batch mode)")
		scenePath    = flag.String("scene", "", "scene config yaml (empty for built-in defaults)")
		obstaclePath = flag.String("obstacles", "", "obstacle env file (overrides scene config)")
		cmapPath     = flag.String("collision_map", "", "collision map json (overrides scene config)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		disableDB    = flag.Bool("disable_db", false, "disable the run index db")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[griddemo] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := scene.Load(*scenePath)
	if err != nil {
		logger.Fatalf("load scene: %v", err)
	}
	if strings.TrimSpace(*obstaclePath) != "" {
		cfg.ObstacleFile = *obstaclePath
	}
	if strings.TrimSpace(*cmapPath) != "" {
		cfg.CollisionMapFile = *cmapPath
	}

	g, err := grid.New(cfg.GridConfig())
	if err != nil {
		logger.Fatalf("grid: %v", err)
	}
	nx, ny, nz := g.GridSize()
	logger.Printf("grid %dx%dx%d cells, resolution %gm, frame %s",
		nx, ny, nz, g.Resolution(), g.ReferenceFrame())

	runID := time.Now().UTC().Format("run_20060102T150405Z")
	events, err := runlog.New(filepath.Join(*dataDir, "runs"), runID)
	if err != nil {
		logger.Fatalf("runlog: %v", err)
	}
	defer events.Close()

	startedAt := time.Now().UTC()
	if err := ingestScene(g, cfg, events, logger); err != nil {
		logger.Fatalf("ingest scene: %v", err)
	}

	propStart := time.Now()
	g.Propagate()
	propMS := float64(time.Since(propStart).Microseconds()) / 1000
	_ = events.Write(runlog.Event{Kind: runlog.KindPropagate, DurationMS: propMS})
	logger.Printf("propagated %d occupied cells in %.1fms", g.OccupiedCount(), propMS)

	sum := fieldstats.Summarize(g)
	_ = events.Write(runlog.Event{
		Kind:   runlog.KindSummary,
		Cells:  sum.Cells,
		Detail: fmt.Sprintf("occupied=%d mean=%.3f median=%.3f clamped=%.2f", sum.Occupied, sum.MeanDistance, sum.MedianDistance, sum.ClampedFraction),
	})
	logger.Printf("field: min=%.3f mean=%.3f median=%.3f p10=%.3f clamped=%.0f%%",
		sum.MinDistance, sum.MeanDistance, sum.MedianDistance, sum.P10Distance, sum.ClampedFraction*100)

	if !*disableDB {
		recordRun(*dataDir, startedAt, cfg, g, sum, propMS, logger)
	}

	if strings.TrimSpace(*addr) == "" {
		logger.Printf("batch mode: done")
		return
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := viz.NewServer(g, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/bootstrap", srv.BootstrapHandler())
	mux.HandleFunc("/v1/ws", srv.WSHandler())
	if envBool("OG_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = httpSrv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// ingestScene applies the obstacle file and, if present, the collision
// map snapshot on top. The collision map replaces the occupancy
// wholesale, so cuboid ingestion before it only matters when no map is
// configured.
func ingestScene(g *grid.OccupancyGrid, cfg scene.Config, events *runlog.Logger, logger *log.Logger) error {
	if cfg.ObstacleFile != "" {
		obstacles, err := scene.LoadObstacleFile(cfg.ObstacleFile, logger)
		if err != nil {
			return fmt.Errorf("obstacle file: %w", err)
		}
		_ = events.Write(runlog.Event{Kind: runlog.KindSceneLoad, Detail: cfg.ObstacleFile})
		for _, o := range obstacles {
			before := g.OccupiedCount()
			mc := o.MinCorner()
			g.AddCollisionCuboid(mc, o.Size.X, o.Size.Y, o.Size.Z)
			_ = events.Write(runlog.Event{
				Kind:       runlog.KindCuboid,
				ObstacleID: o.ID,
				Cells:      g.OccupiedCount() - before,
			})
		}
		logger.Printf("obstacle file %s: %d obstacles, %d occupied cells",
			cfg.ObstacleFile, len(obstacles), g.OccupiedCount())
	}

	if cfg.CollisionMapFile != "" {
		cm, err := scene.LoadCollisionMap(cfg.CollisionMapFile, logger)
		if err != nil {
			return fmt.Errorf("collision map: %w", err)
		}
		if cm.Frame != g.ReferenceFrame() {
			logger.Printf("collision map frame %q differs from grid frame %q; points are used as-is",
				cm.Frame, g.ReferenceFrame())
		}
		g.UpdateFromCollisionMap(cm)
		_ = events.Write(runlog.Event{
			Kind:   runlog.KindCollisionMap,
			Cells:  g.OccupiedCount(),
			Detail: cfg.CollisionMapFile,
		})
		logger.Printf("collision map %s: %d points, %d occupied cells",
			cfg.CollisionMapFile, len(cm.Points), g.OccupiedCount())
	}
	return nil
}

func recordRun(dataDir string, startedAt time.Time, cfg scene.Config, g *grid.OccupancyGrid, sum fieldstats.Summary, propMS float64, logger *log.Logger) {
	db, err := rundb.Open(filepath.Join(dataDir, "runs.db"))
	if err != nil {
		logger.Printf("run index: %v", err)
		return
	}
	defer db.Close()

	sceneFile := cfg.ObstacleFile
	if cfg.CollisionMapFile != "" {
		sceneFile = cfg.CollisionMapFile
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := db.InsertRun(ctx, rundb.RunRow{
		StartedAt:       startedAt.Format(time.RFC3339),
		SceneFile:       sceneFile,
		Frame:           g.ReferenceFrame(),
		GridCells:       sum.Cells,
		Occupied:        sum.Occupied,
		PropagateMS:     propMS,
		MinDistance:     sum.MinDistance,
		MeanDistance:    sum.MeanDistance,
		MedianDistance:  sum.MedianDistance,
		ClampedFraction: sum.ClampedFraction,
	})
	if err != nil {
		logger.Printf("run index: insert: %v", err)
		return
	}
	logger.Printf("run index: recorded run %d", id)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
