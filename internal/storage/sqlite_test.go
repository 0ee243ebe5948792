//go:build sqlite

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mazeswarm/internal/model"
)

func TestSQLiteStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	first := sampleRun("b", sampleTime)
	second := sampleRun("a", sampleTime.Add(time.Second))
	for _, run := range []model.RunRecord{second, first} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save %s: %v", run.ID, err)
		}
	}
	first.Solved = false
	if err := store.SaveRun(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "b" || runs[0].Solved {
		t.Fatalf("unexpected runs %+v", runs)
	}

	if err := store.SaveTickHistory(ctx, "b", []model.TickRecord{{Tick: 3, Hits: 2}}); err != nil {
		t.Fatalf("save ticks: %v", err)
	}
	snapshot := model.MapRecord{VersionedRecord: Current(), RunID: "b", Width: 1, Height: 1, Cells: []model.CellRecord{{Known: 15}}}
	if err := store.SaveMap(ctx, snapshot); err != nil {
		t.Fatalf("save map: %v", err)
	}
	gotMap, ok, err := store.GetMap(ctx, "b")
	if err != nil || !ok || gotMap.Cells[0].Known != 15 {
		t.Fatalf("map = %+v ok=%t err=%v", gotMap, ok, err)
	}

	if err := store.DeleteRun(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetTickHistory(ctx, "b"); ok {
		t.Fatal("tick history survived delete")
	}
	if _, ok, err := store.GetRun(ctx, "b"); ok || err != nil {
		t.Fatalf("run survived delete: ok=%t err=%v", ok, err)
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestSQLiteStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("run-%d", i)
			if err := store.SaveRun(ctx, sampleRun(id, sampleTime.Add(time.Duration(i)*time.Second))); err != nil {
				errs <- err
				return
			}
			if err := store.SaveTickHistory(ctx, id, []model.TickRecord{{Tick: 1, Hits: i}}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent write: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != writers {
		t.Fatalf("runs = %d, want %d", len(runs), writers)
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN("runs.db"); got != "runs.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)" {
		t.Fatalf("dsn = %q", got)
	}
	if got := sqliteDSN("file:runs.db?cache=shared"); got != "file:runs.db?cache=shared&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)" {
		t.Fatalf("dsn = %q", got)
	}
}
