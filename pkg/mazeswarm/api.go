// Package mazeswarm is the programmatic entry point: it builds mazes, runs
// swarms over them, persists the outcome and writes experiment reports.
package mazeswarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mazeswarm/internal/config"
	"mazeswarm/internal/logging"
	"mazeswarm/internal/maze"
	"mazeswarm/internal/model"
	"mazeswarm/internal/report"
	"mazeswarm/internal/storage"
	"mazeswarm/internal/swarm"
	"mazeswarm/internal/worldmap"
)

const (
	defaultReportsDir = "reports"
	defaultExportsDir = "exports"
	defaultDBPath     = "mazeswarm.db"
)

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind  string
	DBPath     string
	ReportsDir string
	ExportsDir string
	// TraceFile, when set, receives one JSON line per finished run.
	TraceFile string
	Logger    *slog.Logger
}

type Client struct {
	store  storage.Store
	trace  *logging.EventLog
	logger *slog.Logger

	reportsDir string
	exportsDir string

	// reportMu serialises appends to the shared configurations table.
	reportMu sync.Mutex
}

type RunRequest struct {
	// Config defaults to config.Default() when nil.
	Config *config.Config
	// Maze optionally supplies drawn rows instead of a generated maze.
	Maze         []string
	ExperimentID string
	Observer     swarm.Observer
}

type RunSummary struct {
	RunID    string
	Summary  swarm.Summary
	Record   model.RunRecord
	Snapshot model.MapRecord
}

type RunsRequest struct {
	Limit int
}

type ShowRequest struct {
	RunID  string
	Latest bool
}

type RunDetails struct {
	Run   model.RunRecord
	Ticks []model.TickRecord
	Map   *model.MapRecord
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type ExperimentRequest struct {
	Config *config.Config
	// Swarms lists the agent counts to try.
	Swarms []int
	// Sizes lists square maze sizes to try; each must be odd.
	Sizes   []int
	Repeats int
	// Parallel bounds concurrent runs; defaults to Config.Run.Parallel.
	Parallel int
}

type ExperimentSummary struct {
	ID                 string
	Runs               []RunSummary
	ConfigurationsPath string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	reportsDir := opts.ReportsDir
	if reportsDir == "" {
		reportsDir = defaultReportsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	var trace *logging.EventLog
	if opts.TraceFile != "" {
		trace, err = logging.OpenEventLog(opts.TraceFile)
		if err != nil {
			_ = storage.CloseIfSupported(store)
			return nil, fmt.Errorf("open trace file: %w", err)
		}
	}

	return &Client{
		store:      store,
		trace:      trace,
		logger:     logger,
		reportsDir: reportsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return errors.Join(c.trace.Close(), storage.CloseIfSupported(c.store))
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Run builds the maze, simulates the swarm over it and persists the run
// record, its tick history and the final map.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}

	m, err := buildMaze(cfg, req.Maze)
	if err != nil {
		return RunSummary{}, err
	}
	simCfg, err := cfg.Simulation()
	if err != nil {
		return RunSummary{}, err
	}
	simCfg.Connectivity = m.Connectivity()
	simCfg.Start = m.Entrance()
	simCfg.Goal = m.Exit()

	runID := uuid.NewString()
	logger := c.logger.With("run", runID)
	sim, err := swarm.New(simCfg, m, swarm.WithLogger(logger))
	if err != nil {
		return RunSummary{}, err
	}

	history := make([]model.TickRecord, 0, cfg.Run.Ticks)
	createdAt := time.Now().UTC()
	summary, err := sim.Run(ctx, cfg.Run.Ticks, func(tm swarm.TickMetrics) error {
		history = append(history, tickRecord(tm))
		if req.Observer != nil {
			return req.Observer(tm)
		}
		return nil
	})
	if err != nil {
		return RunSummary{}, err
	}

	record := model.RunRecord{
		VersionedRecord: storage.Current(),
		ID:              runID,
		ExperimentID:    req.ExperimentID,
		CreatedAt:       createdAt,
		Seed:            simCfg.Seed,
		MazeSeed:        cfg.Maze.Seed,
		MazeWidth:       m.Bounds().Width,
		MazeHeight:      m.Bounds().Height,
		Agents:          simCfg.Agents,
		CohortSize:      simCfg.CohortSize,
		Connectivity:    int(simCfg.Connectivity),
		Decay:           simCfg.Pheromone.Policy.String(),
		TickBudget:      cfg.Run.Ticks,
		Ticks:           summary.Ticks,
		Solved:          summary.Solved,
		SolvedAt:        summary.SolvedAt,
		PathLength:      summary.PathLength,
		PathCost:        summary.PathCost,
		Explored:        summary.Explored,
		Hits:            summary.Hits,
		ElapsedMS:       summary.Elapsed.Milliseconds(),
		Maze:            m.Rows(),
	}
	snapshot := MapRecord(runID, sim.Map().Snapshot(), sim.Snapshot())

	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveTickHistory(ctx, runID, history); err != nil {
		return RunSummary{}, fmt.Errorf("save tick history: %w", err)
	}
	if err := c.store.SaveMap(ctx, snapshot); err != nil {
		return RunSummary{}, fmt.Errorf("save map: %w", err)
	}
	c.trace.Log(map[string]any{
		"event":      "run_finished",
		"run_id":     runID,
		"agents":     record.Agents,
		"maze":       fmt.Sprintf("%dx%d", record.MazeWidth, record.MazeHeight),
		"ticks":      record.Ticks,
		"solved":     record.Solved,
		"solved_at":  record.SolvedAt,
		"explored":   record.Explored,
		"hits":       record.Hits,
		"elapsed_ms": record.ElapsedMS,
	})

	return RunSummary{RunID: runID, Summary: summary, Record: record, Snapshot: snapshot}, nil
}

// Runs lists stored runs, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	slices.Reverse(runs)
	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

func (c *Client) Show(ctx context.Context, req ShowRequest) (RunDetails, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return RunDetails{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return RunDetails{}, err
	}
	if !ok {
		return RunDetails{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	ticks, _, err := c.store.GetTickHistory(ctx, runID)
	if err != nil {
		return RunDetails{}, err
	}
	details := RunDetails{Run: run, Ticks: ticks}
	snapshot, ok, err := c.store.GetMap(ctx, runID)
	if err != nil {
		return RunDetails{}, err
	}
	if ok {
		details.Map = &snapshot
	}
	return details, nil
}

func (c *Client) Delete(ctx context.Context, runID string) error {
	if _, err := c.Show(ctx, ShowRequest{RunID: runID}); err != nil {
		return err
	}
	return c.store.DeleteRun(ctx, runID)
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	details, err := c.Show(ctx, ShowRequest{RunID: req.RunID, Latest: req.Latest})
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	dir, err := report.ExportRun(req.OutDir, report.RunArtifacts{
		Run:   details.Run,
		Ticks: details.Ticks,
		Map:   details.Map,
	})
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: details.Run.ID, Directory: filepath.Clean(dir)}, nil
}

// Experiment runs every swarm size against every maze size, Repeats times,
// and writes a collisions table per run plus a row per run to the shared
// configurations table.
func (c *Client) Experiment(ctx context.Context, req ExperimentRequest) (ExperimentSummary, error) {
	if err := c.Init(ctx); err != nil {
		return ExperimentSummary{}, err
	}
	base := req.Config
	if base == nil {
		base = config.Default()
	}
	if len(req.Swarms) == 0 {
		req.Swarms = []int{base.Swarm.Agents}
	}
	if len(req.Sizes) == 0 {
		req.Sizes = []int{base.Maze.Width}
	}
	if req.Repeats <= 0 {
		req.Repeats = 1
	}
	parallel := req.Parallel
	if parallel <= 0 {
		parallel = base.Run.Parallel
	}
	if parallel <= 0 {
		parallel = 1
	}

	type task struct {
		agents, size, repeat int
	}
	var tasks []task
	for _, agents := range req.Swarms {
		for _, size := range req.Sizes {
			for r := 0; r < req.Repeats; r++ {
				tasks = append(tasks, task{agents: agents, size: size, repeat: r})
			}
		}
	}

	expID := uuid.NewString()
	c.logger.Info("experiment started", "experiment", expID, "runs", len(tasks), "parallel", parallel)
	results := make([]RunSummary, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, tk := range tasks {
		cfg := *base
		cfg.Swarm.Agents = tk.agents
		cfg.Maze.Width, cfg.Maze.Height = tk.size, tk.size
		cfg.Maze.File = ""
		cfg.Maze.Seed = base.Maze.Seed + int64(i)
		cfg.Swarm.Seed = base.Swarm.Seed + int64(i)
		if err := cfg.Validate(); err != nil {
			return ExperimentSummary{}, fmt.Errorf("experiment run %d: %w", i, err)
		}

		g.Go(func() error {
			res, err := c.Run(gctx, RunRequest{Config: &cfg, ExperimentID: expID})
			if err != nil {
				return fmt.Errorf("experiment run %d (%d agents, %dx%d): %w", i, tk.agents, tk.size, tk.size, err)
			}
			results[i] = res
			return c.writeReports(res)
		})
	}
	if err := g.Wait(); err != nil {
		return ExperimentSummary{}, err
	}

	record := model.ExperimentRecord{
		VersionedRecord: storage.Current(),
		ID:              expID,
		CreatedAt:       time.Now().UTC(),
		Swarms:          slices.Clone(req.Swarms),
		Sizes:           slices.Clone(req.Sizes),
		Repeats:         req.Repeats,
		RunIDs:          make([]string, len(results)),
	}
	for i, res := range results {
		record.RunIDs[i] = res.RunID
	}
	if err := c.store.SaveExperiment(ctx, record); err != nil {
		return ExperimentSummary{}, fmt.Errorf("save experiment: %w", err)
	}
	c.logger.Info("experiment finished", "experiment", expID, "runs", len(results))

	return ExperimentSummary{
		ID:                 expID,
		Runs:               results,
		ConfigurationsPath: filepath.Join(c.reportsDir, report.ConfigurationsFile),
	}, nil
}

func (c *Client) writeReports(res RunSummary) error {
	rec := res.Record
	path := report.CollisionsPath(c.reportsDir, rec.Agents, rec.MazeWidth, rec.MazeHeight, rec.CreatedAt, rec.ID)
	if err := report.WriteCollisions(path, res.Snapshot.Agents); err != nil {
		return fmt.Errorf("write collisions: %w", err)
	}
	path = report.HitsPath(c.reportsDir, rec.Agents, rec.MazeWidth, rec.MazeHeight, rec.CreatedAt, rec.ID)
	if err := report.WriteHitsPerSecond(path, report.HitsPerSecond(res.Snapshot.Agents, report.TicksPerSecond)); err != nil {
		return fmt.Errorf("write hits: %w", err)
	}
	c.reportMu.Lock()
	defer c.reportMu.Unlock()
	return report.AppendConfiguration(c.reportsDir, report.ConfigurationFromRun(rec))
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		return runID, nil
	}
	runs, err := c.Runs(ctx, RunsRequest{Limit: 1})
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: no runs stored", ErrRunNotFound)
	}
	return runs[0].ID, nil
}

func buildMaze(cfg *config.Config, rows []string) (*maze.Maze, error) {
	mc := cfg.MazeConfig()
	if len(rows) == 0 && cfg.Maze.File != "" {
		data, err := os.ReadFile(cfg.Maze.File)
		if err != nil {
			return nil, fmt.Errorf("read maze file: %w", err)
		}
		rows = splitRows(string(data))
	}
	if len(rows) > 0 {
		m, err := maze.Parse(rows, mc.Connectivity)
		if err != nil {
			return nil, fmt.Errorf("parse maze: %w", err)
		}
		return m, nil
	}
	return maze.Generate(mc)
}

func splitRows(s string) []string {
	var rows []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimRight(line, " \t"); line != "" {
			rows = append(rows, line)
		}
	}
	return rows
}

func tickRecord(m swarm.TickMetrics) model.TickRecord {
	return model.TickRecord{
		Tick:         m.Tick,
		Explored:     m.Explored,
		Stalled:      m.Stalled,
		Backtracking: m.Backtracking,
		Hits:         m.Hits,
		Deadends:     m.Deadends,
		Pheromone:    m.Pheromone,
		Solved:       m.Solved,
		PathLength:   m.PathLength,
	}
}

// MapRecord converts a map snapshot and agent buffer into the persisted form.
func MapRecord(runID string, snap worldmap.Snapshot, agents []swarm.Agent) model.MapRecord {
	rec := model.MapRecord{
		VersionedRecord: storage.Current(),
		RunID:           runID,
		Width:           snap.Bounds.Width,
		Height:          snap.Bounds.Height,
		Connectivity:    int(snap.Connectivity),
		MaxPheromone:    snap.MaxPheromone,
		Cells:           make([]model.CellRecord, len(snap.Cells)),
		Agents:          make([]model.AgentRecord, len(agents)),
	}
	for i, c := range snap.Cells {
		rec.Cells[i] = model.CellRecord{
			Pheromone: c.Pheromone,
			Marker:    c.Marker,
			Known:     uint8(c.Topology.Known),
			Walls:     uint8(c.Topology.Walls),
			Swamps:    uint8(c.Topology.Swamps),
			Status:    uint8(c.Status),
			Deadend:   c.Deadend,
			Goal:      c.Goal,
			Landmark:  c.Landmark,
		}
	}
	for i, a := range agents {
		rec.Agents[i] = model.AgentRecord{
			ID:       a.ID,
			X:        a.Position[0],
			Y:        a.Position[1],
			Mode:     a.Mode.String(),
			Hits:     a.Hits,
			Stalled:  a.Registers.Stalled,
			HitTicks: slices.Clone(a.HitTicks),
		}
	}
	return rec
}
