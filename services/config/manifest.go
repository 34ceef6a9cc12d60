package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// RunManifest pins everything needed to reproduce a simulation run
// bit-for-bit: the request, the data window and the engine version.
type RunManifest struct {
	JobID          string `json:"job_id"`
	Symbol         string `json:"symbol"`
	Interval       string `json:"interval"`
	StartMs        uint64 `json:"start_ms"`
	EndMs          uint64 `json:"end_ms"`
	RequestHash    string `json:"request_hash"`
	EngineVersion  string `json:"engine_version"`
	InitialCapital string `json:"initial_capital"`
	CreatedAt      uint64 `json:"created_at"`
}

const EngineVersion = "1.0.0"

// NewRunManifest hashes the raw request so two runs can be compared for
// identical inputs before comparing their ledgers.
func NewRunManifest(jobID, symbol, interval string, startMs, endMs uint64, request any, initialCapital string) (*RunManifest, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("manifest: marshal request: %w", err)
	}
	return &RunManifest{
		JobID:          jobID,
		Symbol:         symbol,
		Interval:       interval,
		StartMs:        startMs,
		EndMs:          endMs,
		RequestHash:    fmt.Sprintf("%x", sha256.Sum256(raw)),
		EngineVersion:  EngineVersion,
		InitialCapital: initialCapital,
		CreatedAt:      uint64(time.Now().UnixMilli()),
	}, nil
}
