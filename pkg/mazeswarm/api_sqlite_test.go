//go:build sqlite

package mazeswarm

import (
	"context"
	"path/filepath"
	"testing"
)

func TestClientExperimentParallelSQLite(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:  "sqlite",
		DBPath:     filepath.Join(base, "runs.db"),
		ReportsDir: filepath.Join(base, "reports"),
		ExportsDir: filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	cfg := smallConfig()
	cfg.Run.Ticks = 15
	ctx := context.Background()
	summary, err := client.Experiment(ctx, ExperimentRequest{
		Config:   cfg,
		Swarms:   []int{2, 3},
		Sizes:    []int{7},
		Repeats:  3,
		Parallel: 4,
	})
	if err != nil {
		t.Fatalf("experiment: %v", err)
	}
	if len(summary.Runs) != 6 {
		t.Fatalf("runs = %d", len(summary.Runs))
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 6 {
		t.Fatalf("stored runs = %d", len(runs))
	}
	for _, r := range summary.Runs {
		if _, err := client.Show(ctx, ShowRequest{RunID: r.RunID}); err != nil {
			t.Fatalf("show %s: %v", r.RunID, err)
		}
	}
}
