package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	api "mazeswarm/pkg/mazeswarm"
)

func runSelector(cmd *cobra.Command, args []string) (string, bool, error) {
	latest, _ := cmd.Flags().GetBool("latest")
	var id string
	if len(args) == 1 {
		id = args[0]
	}
	if id == "" && !latest {
		return "", false, errors.New("give a run id or --latest")
	}
	return id, latest, nil
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show a stored run and its last tick",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, latest, err := runSelector(cmd, args)
			if err != nil {
				return err
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			details, err := e.client.Show(cmd.Context(), api.ShowRequest{RunID: id, Latest: latest})
			if err != nil {
				return err
			}
			if e.json {
				return writeJSON(cmd.OutOrStdout(), details)
			}

			out := cmd.OutOrStdout()
			printRun(out, details.Run)
			if n := len(details.Ticks); n > 0 {
				last := details.Ticks[n-1]
				fmt.Fprintf(out, "  last tick %d: %d stalled, %d backtracking, %d dead ends, pheromone %.1f\n",
					last.Tick, last.Stalled, last.Backtracking, last.Deadends, last.Pheromone)
			}
			if details.Map != nil {
				counts := statusCounts(details.Run, details.Map)
				fmt.Fprintf(out, "  cells     %d unexplored, %d partial, %d explored\n", counts[0], counts[1], counts[2])
			}
			return nil
		},
	}
	cmd.Flags().Bool("latest", false, "Use the most recent run")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "Export a run's record, tick history, map and collisions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, latest, err := runSelector(cmd, args)
			if err != nil {
				return err
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			outDir, _ := cmd.Flags().GetString("out")
			summary, err := e.client.Export(cmd.Context(), api.ExportRequest{RunID: id, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			if e.json {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run %s to %s\n", summary.RunID, summary.Directory)
			return nil
		},
	}
	cmd.Flags().Bool("latest", false, "Use the most recent run")
	cmd.Flags().String("out", "", "Output directory (default exports)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
			return nil
		},
	}
}
