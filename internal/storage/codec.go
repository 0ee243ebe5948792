package storage

import (
	"encoding/json"
	"errors"

	"mazeswarm/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Current returns the version stamp for newly written records.
func Current() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeMap(m model.MapRecord) ([]byte, error) {
	return json.Marshal(m)
}

func DecodeMap(data []byte) (model.MapRecord, error) {
	var snapshot model.MapRecord
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.MapRecord{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.MapRecord{}, err
	}
	if len(snapshot.Cells) != snapshot.Width*snapshot.Height {
		return model.MapRecord{}, errors.New("map record cell count does not match its size")
	}
	return snapshot, nil
}

func EncodeExperiment(e model.ExperimentRecord) ([]byte, error) {
	return json.Marshal(e)
}

func DecodeExperiment(data []byte) (model.ExperimentRecord, error) {
	var experiment model.ExperimentRecord
	if err := json.Unmarshal(data, &experiment); err != nil {
		return model.ExperimentRecord{}, err
	}
	if err := checkVersion(experiment.VersionedRecord); err != nil {
		return model.ExperimentRecord{}, err
	}
	return experiment, nil
}

func EncodeTickHistory(ticks []model.TickRecord) ([]byte, error) {
	return json.Marshal(ticks)
}

func DecodeTickHistory(data []byte) ([]model.TickRecord, error) {
	var ticks []model.TickRecord
	if err := json.Unmarshal(data, &ticks); err != nil {
		return nil, err
	}
	return ticks, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
