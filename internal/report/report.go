// Package report writes experiment and run artifacts to disk: per-run
// collision tables, the shared configurations table and run exports.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"mazeswarm/internal/model"
)

const (
	stampLayout        = "%Y%m%d_%H%M%S"
	collisionsSuffix   = "collisions.csv"
	hitsSuffix         = "hits.csv"
	ConfigurationsFile = "configurations.csv"

	// TicksPerSecond is the simulated frame rate hit ticks are binned by.
	TicksPerSecond = 24

	shortIDLen = 8
)

var configurationsHeader = []string{"timestamp", "run_id", "agents", "maze_width", "maze_height", "completion_tick", "computation_ms", "solver"}

// Stamp formats t the way every report file name and row is stamped.
func Stamp(t time.Time) string {
	return strftime.Format(stampLayout, t)
}

// Configuration is one row of the configurations table.
type Configuration struct {
	Stamp          string
	RunID          string
	Agents         int
	MazeWidth      int
	MazeHeight     int
	CompletionTick int // -1 when the run never solved the maze
	Computation    time.Duration
	Solver         string
}

// ConfigurationFromRun fills a row from a persisted run.
func ConfigurationFromRun(run model.RunRecord) Configuration {
	completion := -1
	if run.Solved {
		completion = run.SolvedAt
	}
	return Configuration{
		Stamp:          Stamp(run.CreatedAt),
		RunID:          run.ID,
		Agents:         run.Agents,
		MazeWidth:      run.MazeWidth,
		MazeHeight:     run.MazeHeight,
		CompletionTick: completion,
		Computation:    time.Duration(run.ElapsedMS) * time.Millisecond,
		Solver:         "CPU",
	}
}

// CollisionsPath is the file a run's collisions table is written to. The
// run id keeps repeats stamped within the same second apart.
func CollisionsPath(dir string, agents, width, height int, at time.Time, runID string) string {
	return runFile(dir, agents, width, height, at, runID, collisionsSuffix)
}

// HitsPath is the file a run's per-second hit histogram is written to.
func HitsPath(dir string, agents, width, height int, at time.Time, runID string) string {
	return runFile(dir, agents, width, height, at, runID, hitsSuffix)
}

func runFile(dir string, agents, width, height int, at time.Time, runID, suffix string) string {
	if len(runID) > shortIDLen {
		runID = runID[:shortIDLen]
	}
	name := fmt.Sprintf("%d_%d_%d%s_%s_%s", agents, width, height, Stamp(at), runID, suffix)
	return filepath.Join(dir, name)
}

// WriteCollisions writes one row per agent: its id, its wall hit count and
// then the tick of every hit.
func WriteCollisions(path string, agents []model.AgentRecord) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"agent", "hits", "hit_ticks"}); err != nil {
			return err
		}
		for _, a := range agents {
			row := make([]string, 0, 2+len(a.HitTicks))
			row = append(row, strconv.Itoa(a.ID), strconv.Itoa(a.Hits))
			for _, tick := range a.HitTicks {
				row = append(row, strconv.Itoa(tick))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// HitsPerSecond bins every agent's hit ticks into seconds of ticksPerSecond
// ticks. The result runs up to the second of the last hit.
func HitsPerSecond(agents []model.AgentRecord, ticksPerSecond int) []int {
	if ticksPerSecond <= 0 {
		ticksPerSecond = TicksPerSecond
	}
	var bins []int
	for _, a := range agents {
		for _, tick := range a.HitTicks {
			if tick < 0 {
				continue
			}
			sec := tick / ticksPerSecond
			for len(bins) <= sec {
				bins = append(bins, 0)
			}
			bins[sec]++
		}
	}
	return bins
}

// WriteHitsPerSecond writes a second,hits row per bin.
func WriteHitsPerSecond(path string, bins []int) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"second", "hits"}); err != nil {
			return err
		}
		for sec, hits := range bins {
			if err := w.Write([]string{strconv.Itoa(sec), strconv.Itoa(hits)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, rows func(*csv.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

// AppendConfiguration appends a row to dir/configurations.csv, writing the
// header when the file is new.
func AppendConfiguration(dir string, c Configuration) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, ConfigurationsFile)
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if fresh {
		if err := w.Write(configurationsHeader); err != nil {
			return err
		}
	}
	row := []string{
		c.Stamp,
		c.RunID,
		strconv.Itoa(c.Agents),
		strconv.Itoa(c.MazeWidth),
		strconv.Itoa(c.MazeHeight),
		strconv.Itoa(c.CompletionTick),
		strconv.FormatInt(c.Computation.Milliseconds(), 10),
		c.Solver,
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

// ReadConfigurations loads dir/configurations.csv. A missing file yields an
// empty slice.
func ReadConfigurations(dir string) ([]Configuration, error) {
	file, err := os.Open(filepath.Join(dir, ConfigurationsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Configuration{}, nil
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(configurationsHeader)
	var out []Configuration
	for line := 0; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 0 && rec[0] == configurationsHeader[0] {
			continue
		}
		c, err := parseConfiguration(rec)
		if err != nil {
			return nil, fmt.Errorf("configurations line %d: %w", line+1, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func parseConfiguration(rec []string) (Configuration, error) {
	ints := make([]int, 4)
	for i, field := range rec[2:6] {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return Configuration{}, err
		}
		ints[i] = v
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(rec[6]), 10, 64)
	if err != nil {
		return Configuration{}, err
	}
	return Configuration{
		Stamp:          rec[0],
		RunID:          rec[1],
		Agents:         ints[0],
		MazeWidth:      ints[1],
		MazeHeight:     ints[2],
		CompletionTick: ints[3],
		Computation:    time.Duration(ms) * time.Millisecond,
		Solver:         rec[7],
	}, nil
}

// WriteTickHistory writes the per-tick metrics of a run as CSV.
func WriteTickHistory(path string, ticks []model.TickRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"tick", "explored", "stalled", "backtracking", "hits", "deadends", "pheromone", "solved", "path_length"}); err != nil {
		return err
	}
	for _, t := range ticks {
		row := []string{
			strconv.Itoa(t.Tick),
			strconv.FormatFloat(t.Explored, 'f', 6, 64),
			strconv.Itoa(t.Stalled),
			strconv.Itoa(t.Backtracking),
			strconv.Itoa(t.Hits),
			strconv.Itoa(t.Deadends),
			strconv.FormatFloat(t.Pheromone, 'f', 4, 64),
			strconv.FormatBool(t.Solved),
			strconv.Itoa(t.PathLength),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

// RunArtifacts is everything persisted about one run.
type RunArtifacts struct {
	Run   model.RunRecord
	Ticks []model.TickRecord
	Map   *model.MapRecord
}

// ExportRun writes a run's artifacts under baseDir/<run id> and returns that
// directory.
func ExportRun(baseDir string, a RunArtifacts) (string, error) {
	if a.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}
	runDir := filepath.Join(baseDir, a.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), a.Run); err != nil {
		return "", err
	}
	maze := strings.Join(a.Run.Maze, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(runDir, "maze.txt"), []byte(maze), 0o644); err != nil {
		return "", err
	}
	if err := WriteTickHistory(filepath.Join(runDir, "ticks.csv"), a.Ticks); err != nil {
		return "", err
	}
	if a.Map != nil {
		if err := writeJSON(filepath.Join(runDir, "map.json"), a.Map); err != nil {
			return "", err
		}
		if err := WriteCollisions(filepath.Join(runDir, collisionsSuffix), a.Map.Agents); err != nil {
			return "", err
		}
		if err := WriteHitsPerSecond(filepath.Join(runDir, hitsSuffix), HitsPerSecond(a.Map.Agents, TicksPerSecond)); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
