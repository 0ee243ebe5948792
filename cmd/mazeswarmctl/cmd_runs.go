package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	api "mazeswarm/pkg/mazeswarm"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := e.client.Runs(cmd.Context(), api.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			if e.json {
				return writeJSON(cmd.OutOrStdout(), runs)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs stored.")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %-14s  %-7s  %-6s  %-8s  %s\n", "RUN", "CREATED", "MAZE", "AGENTS", "TICKS", "SOLVED")
			for _, r := range runs {
				solved := "no"
				if r.Solved {
					solved = fmt.Sprintf("@%d", r.SolvedAt)
				}
				fmt.Fprintf(out, "%-36s  %-14s  %-7s  %-6d  %-8s  %s\n",
					r.ID, humanize.Time(r.CreatedAt), fmt.Sprintf("%dx%d", r.MazeWidth, r.MazeHeight),
					r.Agents, humanize.Comma(int64(r.Ticks)), solved)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}
