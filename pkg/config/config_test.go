package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigHasSaneBounds(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Decoder.StackCapacity <= 0 {
		t.Errorf("default StackCapacity should be positive, got %d", cfg.Decoder.StackCapacity)
	}
	if cfg.LM.Order < 1 {
		t.Errorf("default LM order should be >= 1, got %d", cfg.LM.Order)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)

	want := DefaultConfig()
	want.Decoder.StackCapacity = 42
	want.RM.DistortionLimit = 9

	if err := SaveConfig(want, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.Decoder.StackCapacity != 42 || got.RM.DistortionLimit != 9 {
		t.Errorf("round-tripped config = %+v, want matching overrides", got)
	}
}

func TestLoadConfigWithPriorityFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	cfg, path, err := LoadConfigWithPriority("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path when no config file exists anywhere, got %q", path)
	}
	if cfg.Decoder.StackCapacity != DefaultConfig().Decoder.StackCapacity {
		t.Errorf("expected built-in defaults when no config file is found")
	}
}

func TestLoadConfigWithPriorityPrefersExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	want := DefaultConfig()
	want.Decoder.NumBestTrans = 7
	if err := SaveConfig(want, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	cfg, resolved, err := LoadConfigWithPriority(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Decoder.NumBestTrans != 7 {
		t.Errorf("expected explicit-path config to be honored")
	}
}
