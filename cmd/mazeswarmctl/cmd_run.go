package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mazeswarm/internal/model"
	api "mazeswarm/pkg/mazeswarm"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one swarm through one maze",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := applyRunFlags(cmd, e); err != nil {
				return err
			}
			showMap, _ := cmd.Flags().GetBool("map")
			exportDir, _ := cmd.Flags().GetString("export")

			res, err := e.client.Run(cmd.Context(), api.RunRequest{Config: e.cfg})
			if err != nil {
				return err
			}
			var exported string
			if exportDir != "" {
				out, err := e.client.Export(cmd.Context(), api.ExportRequest{RunID: res.RunID, OutDir: exportDir})
				if err != nil {
					return err
				}
				exported = out.Directory
			}

			if e.json {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"run":      res.Record,
					"exported": exported,
				})
			}
			printRun(cmd.OutOrStdout(), res.Record)
			if exported != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  exported  %s\n", exported)
			}
			if showMap {
				fmt.Fprintln(cmd.OutOrStdout(), renderMap(res.Record, &res.Snapshot))
			}
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Bool("map", false, "Draw the final map")
	cmd.Flags().String("export", "", "Export the run artifacts to this directory")
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("agents", 0, "Number of agents")
	cmd.Flags().Int("width", 0, "Maze width (odd)")
	cmd.Flags().Int("height", 0, "Maze height (odd)")
	cmd.Flags().Int("ticks", 0, "Tick budget")
	cmd.Flags().Int64("seed", 0, "Swarm random seed")
	cmd.Flags().Int64("maze-seed", 0, "Maze generator seed")
	cmd.Flags().String("maze-file", "", "Drawn maze to use instead of a generated one")
	cmd.Flags().Int("connectivity", 0, "Neighbourhood: 4 or 8")
	cmd.Flags().String("decay", "", "Pheromone decay: passive, on-visit or none")
	cmd.Flags().String("spawn", "", "Spawn placement: entrance or random")
	cmd.Flags().Bool("keep-going", false, "Keep running after the path is found")
}

// applyRunFlags overlays explicitly set flags on the loaded config.
func applyRunFlags(cmd *cobra.Command, e *env) error {
	f := cmd.Flags()
	cfg := e.cfg
	if f.Changed("agents") {
		cfg.Swarm.Agents, _ = f.GetInt("agents")
	}
	if f.Changed("width") {
		cfg.Maze.Width, _ = f.GetInt("width")
	}
	if f.Changed("height") {
		cfg.Maze.Height, _ = f.GetInt("height")
	}
	if f.Changed("ticks") {
		cfg.Run.Ticks, _ = f.GetInt("ticks")
	}
	if f.Changed("seed") {
		cfg.Swarm.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("maze-seed") {
		cfg.Maze.Seed, _ = f.GetInt64("maze-seed")
	}
	if f.Changed("maze-file") {
		cfg.Maze.File, _ = f.GetString("maze-file")
	}
	if f.Changed("connectivity") {
		cfg.Swarm.Connectivity, _ = f.GetInt("connectivity")
	}
	if f.Changed("decay") {
		cfg.Pheromone.Decay, _ = f.GetString("decay")
	}
	if f.Changed("spawn") {
		cfg.Swarm.Spawn, _ = f.GetString("spawn")
	}
	if keep, _ := f.GetBool("keep-going"); keep {
		cfg.Run.StopOnSolve = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func printRun(w io.Writer, run model.RunRecord) {
	fmt.Fprintf(w, "run %s\n", run.ID)
	fmt.Fprintf(w, "  maze      %dx%d (seed %d, %d-connected)\n", run.MazeWidth, run.MazeHeight, run.MazeSeed, run.Connectivity)
	fmt.Fprintf(w, "  agents    %d (cohorts of %d, %s decay)\n", run.Agents, run.CohortSize, run.Decay)
	fmt.Fprintf(w, "  ticks     %s of %s\n", humanize.Comma(int64(run.Ticks)), humanize.Comma(int64(run.TickBudget)))
	if run.Solved {
		fmt.Fprintf(w, "  solved    at tick %s, path %d cells, cost %.1f\n", humanize.Comma(int64(run.SolvedAt)), run.PathLength, run.PathCost)
	} else {
		fmt.Fprintln(w, "  solved    no")
	}
	fmt.Fprintf(w, "  explored  %.1f%%\n", run.Explored*100)
	fmt.Fprintf(w, "  hits      %s\n", humanize.Comma(int64(run.Hits)))
	fmt.Fprintf(w, "  elapsed   %s\n", time.Duration(run.ElapsedMS)*time.Millisecond)
	if !run.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  created   %s\n", humanize.Time(run.CreatedAt))
	}
}
