package engine

import (
	"time"

	"github.com/google/uuid"
)

// DefinitionMode selects which step list an execution advances against.
type DefinitionMode string

const (
	// DefinitionModeLive resolves steps against the journey as currently stored.
	DefinitionModeLive DefinitionMode = "live"
	// DefinitionModeSnapshot resolves steps against the copy taken at start.
	DefinitionModeSnapshot DefinitionMode = "snapshot"
)

// Config holds the engine tunables.
type Config struct {
	// WorkerID identifies this runner as a lease owner.
	WorkerID string
	// LeaseDuration bounds how long a claim survives a crashed runner.
	LeaseDuration time.Duration
	// BatchSize caps the executions claimed per ProcessReadyExecutions call; 0 means all.
	BatchSize int
	// MaxStepsPerTick caps the transitions applied to one claimed execution per call.
	MaxStepsPerTick int
	DefinitionMode  DefinitionMode
}

func DefaultConfig() Config {
	return Config{
		WorkerID:        "journeys-" + uuid.New().String()[:8],
		LeaseDuration:   5 * time.Minute,
		BatchSize:       100,
		MaxStepsPerTick: 1,
		DefinitionMode:  DefinitionModeLive,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()

	if c.WorkerID == "" {
		c.WorkerID = defaults.WorkerID
	}

	if c.LeaseDuration <= 0 {
		c.LeaseDuration = defaults.LeaseDuration
	}

	if c.BatchSize < 0 {
		c.BatchSize = 0
	}

	if c.MaxStepsPerTick <= 0 {
		c.MaxStepsPerTick = defaults.MaxStepsPerTick
	}

	if c.DefinitionMode != DefinitionModeSnapshot {
		c.DefinitionMode = DefinitionModeLive
	}

	return c
}
