package storage

import (
	"errors"
	"testing"

	"mazeswarm/internal/model"
)

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	run := sampleRun("r1", sampleTime)
	run.SchemaVersion = CurrentSchemaVersion + 1
	payload, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodeMapChecksCellCount(t *testing.T) {
	snapshot := model.MapRecord{VersionedRecord: Current(), RunID: "r1", Width: 2, Height: 2, Cells: make([]model.CellRecord, 3)}
	payload, err := EncodeMap(snapshot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeMap(payload); err == nil {
		t.Fatal("expected cell count error")
	}

	snapshot.Cells = append(snapshot.Cells, model.CellRecord{Pheromone: 4, Goal: true})
	payload, err = EncodeMap(snapshot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeMap(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Cells[3].Goal || decoded.Cells[3].Pheromone != 4 {
		t.Fatalf("cell not preserved: %+v", decoded.Cells[3])
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeRun([]byte("{")); err == nil {
		t.Fatal("expected run decode error")
	}
	if _, err := DecodeTickHistory([]byte("[{")); err == nil {
		t.Fatal("expected tick decode error")
	}
	if _, err := DecodeExperiment([]byte(`{"schema_version":0}`)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}
