package config

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/lockstep/kernel/fixed"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := Load(fs, "/config.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := DefaultConfig()
	if *cfg != *want {
		t.Fatalf("Load on missing file = %+v, want defaults %+v", cfg, want)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := DefaultConfig()
	cfg.TickRateHz = 60
	cfg.HistoryBound = 240

	if err := Save(fs, "/cfg/config.json", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(fs, "/cfg/config.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *cfg {
		t.Fatalf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestSaveIsAtomicNoTempFileLeftBehind(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := Save(fs, "/config.json", DefaultConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if exists, _ := afero.Exists(fs, "/config.json.tmp"); exists {
		t.Fatalf("temp file left behind after Save")
	}
}

func TestLoadMigratesZeroValuedFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	partial := &Config{Version: 0, TickRateHz: 45}
	if err := Save(fs, "/config.json", partial); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(fs, "/config.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Version != currentVersion {
		t.Fatalf("Version = %d, want %d", got.Version, currentVersion)
	}
	if got.TickRateHz != 45 {
		t.Fatalf("TickRateHz = %d, want preserved 45", got.TickRateHz)
	}
	if got.HistoryBound != DefaultConfig().HistoryBound {
		t.Fatalf("HistoryBound = %d, want default %d", got.HistoryBound, DefaultConfig().HistoryBound)
	}
}

func TestCreateIfMissingIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := CreateIfMissing(fs, "/config.json"); err != nil {
		t.Fatalf("CreateIfMissing: %v", err)
	}
	cfg, err := Load(fs, "/config.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.TickRateHz = 999
	if err := Save(fs, "/config.json", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := CreateIfMissing(fs, "/config.json"); err != nil {
		t.Fatalf("second CreateIfMissing: %v", err)
	}
	got, err := Load(fs, "/config.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TickRateHz != 999 {
		t.Fatalf("CreateIfMissing overwrote an existing file: TickRateHz = %d, want 999", got.TickRateHz)
	}
}

func TestDefaultSpatialCellSizeIsSixtyFour(t *testing.T) {
	if got := DefaultConfig().SpatialCellSize; got != fixed.FromInt(64) {
		t.Fatalf("SpatialCellSize = %v, want 64", got)
	}
}
