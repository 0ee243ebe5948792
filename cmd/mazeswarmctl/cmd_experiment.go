package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	api "mazeswarm/pkg/mazeswarm"
)

func newExperimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Run every swarm size against every maze size and write CSV reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := applyRunFlags(cmd, e); err != nil {
				return err
			}
			swarms, _ := cmd.Flags().GetIntSlice("swarms")
			sizes, _ := cmd.Flags().GetIntSlice("sizes")
			repeats, _ := cmd.Flags().GetInt("repeats")
			parallel, _ := cmd.Flags().GetInt("parallel")
			for _, size := range sizes {
				if size < 5 || size%2 == 0 {
					return fmt.Errorf("maze size %d must be odd and >= 5", size)
				}
			}

			summary, err := e.client.Experiment(cmd.Context(), api.ExperimentRequest{
				Config:   e.cfg,
				Swarms:   swarms,
				Sizes:    sizes,
				Repeats:  repeats,
				Parallel: parallel,
			})
			if err != nil {
				return err
			}

			if e.json {
				records := make([]any, len(summary.Runs))
				for i, r := range summary.Runs {
					records[i] = r.Record
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"experiment":     summary.ID,
					"configurations": summary.ConfigurationsPath,
					"runs":           records,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "experiment %s: %d runs\n", summary.ID, len(summary.Runs))
			fmt.Fprintf(out, "%-8s %-9s %-8s %-10s %s\n", "AGENTS", "MAZE", "SOLVED", "AT TICK", "HITS")
			for _, r := range summary.Runs {
				rec := r.Record
				at := "-"
				if rec.Solved {
					at = humanize.Comma(int64(rec.SolvedAt))
				}
				fmt.Fprintf(out, "%-8d %-9s %-8t %-10s %s\n", rec.Agents, fmt.Sprintf("%dx%d", rec.MazeWidth, rec.MazeHeight), rec.Solved, at, humanize.Comma(int64(rec.Hits)))
			}
			fmt.Fprintf(out, "configurations: %s\n", summary.ConfigurationsPath)
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().IntSlice("swarms", []int{21}, "Agent counts to try")
	cmd.Flags().IntSlice("sizes", []int{41}, "Square maze sizes to try")
	cmd.Flags().Int("repeats", 1, "Runs per swarm and maze size")
	cmd.Flags().Int("parallel", 0, "Concurrent runs (default from config)")
	return cmd
}
