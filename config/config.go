// Package config persists the kernel's engine-level tunables — tick rate,
// entity capacity, rollback/history bounds, spatial hash cell size — as a
// versioned JSON document, the same way the teacher persists its
// `ui/storage` application config: load-with-defaults, atomic write,
// migrate-forward on load (ui/storage/config.go).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/lockstep/kernel/fixed"
)

// currentVersion is bumped whenever a migration step is added to
// migrateConfig.
const currentVersion = 1

// Config holds every engine-level tunable the kernel reads at startup.
// Everything here is safe to leave zero in a hand-written file — Load
// back-fills defaults for any field equal to its zero value, the same
// contract as the teacher's migrateConfig.
type Config struct {
	Version int `json:"version"`

	// TickRateHz is the fixed simulation tick rate (spec.md §1: "nominally
	// 20-60 Hz").
	TickRateHz uint32 `json:"tickRateHz"`

	// CapacityCap is the operational entity cap (spec.md §4.1
	// "operationally 10 000", independent of the 2^20 structural cap).
	CapacityCap uint32 `json:"capacityCap"`

	// HistoryBound is the input history's frame bound (spec.md §4.5,
	// default 120).
	HistoryBound uint32 `json:"historyBound"`

	// SnapshotBound is the rollback snapshot ring's frame bound (spec.md
	// §4.5, default 60).
	SnapshotBound uint32 `json:"snapshotBound"`

	// SpatialCellSize is the broad-phase spatial hash's cell size, as a
	// Q16.16 fixed-point value (spec.md §4.3).
	SpatialCellSize fixed.Scalar `json:"spatialCellSize"`

	// SnapshotBroadcastInterval is how often (in frames) the authority
	// broadcasts a full snapshot (spec.md §4.6 "every ~100 frames").
	SnapshotBroadcastInterval uint32 `json:"snapshotBroadcastInterval"`

	// DebugNetwork and DebugRollback gate the two debug log channels
	// spec.md §6 names (`DEBUG_NETWORK`, `DEBUG_ROLLBACK`).
	DebugNetwork  bool `json:"debugNetwork"`
	DebugRollback bool `json:"debugRollback"`
}

// DefaultConfig returns the engine's out-of-the-box tunables.
func DefaultConfig() *Config {
	return &Config{
		Version:                   currentVersion,
		TickRateHz:                30,
		CapacityCap:               10000,
		HistoryBound:              120,
		SnapshotBound:             60,
		SpatialCellSize:           fixed.FromInt(64),
		SnapshotBroadcastInterval: 100,
	}
}

// Load reads path from fs, applying defaults if the file doesn't exist and
// migrating forward if it's from an older version, mirroring
// ui/storage/config.go's LoadConfig/migrateConfig pair.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return migrate(cfg), nil
}

// Save atomically writes cfg to path on fs: write to a sibling temp file,
// then rename over the destination, so a crash mid-write never leaves a
// truncated config behind (ui/storage/config.go's "SaveConfig ...
// atomically").
func Save(fs afero.Fs, path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("config: rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}

// CreateIfMissing writes DefaultConfig to path if nothing is there yet.
func CreateIfMissing(fs afero.Fs, path string) error {
	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Save(fs, path, DefaultConfig())
	} else if err != nil {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	return nil
}

// migrate back-fills any zero-valued field with its default and bumps the
// version, the same shape as ui/storage/config.go's migrateConfig.
func migrate(cfg *Config) *Config {
	def := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = currentVersion
	}
	if cfg.TickRateHz == 0 {
		cfg.TickRateHz = def.TickRateHz
	}
	if cfg.CapacityCap == 0 {
		cfg.CapacityCap = def.CapacityCap
	}
	if cfg.HistoryBound == 0 {
		cfg.HistoryBound = def.HistoryBound
	}
	if cfg.SnapshotBound == 0 {
		cfg.SnapshotBound = def.SnapshotBound
	}
	if cfg.SpatialCellSize == 0 {
		cfg.SpatialCellSize = def.SpatialCellSize
	}
	if cfg.SnapshotBroadcastInterval == 0 {
		cfg.SnapshotBroadcastInterval = def.SnapshotBroadcastInterval
	}
	return cfg
}
