package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Bake.GridSize != 8 {
		t.Errorf("default grid size = %d, expected 8", cfg.Bake.GridSize)
	}
	if cfg.Bake.TileSize != 64 {
		t.Errorf("default tile size = %d, expected 64", cfg.Bake.TileSize)
	}
	if cfg.Bake.Radius != 1 {
		t.Errorf("default radius = %f, expected 1", cfg.Bake.Radius)
	}
	if cfg.Bake.Multisample != 8 {
		t.Errorf("default multisample = %d, expected 8", cfg.Bake.Multisample)
	}
	if !cfg.Bake.WaitForRender {
		t.Error("expected wait_for_render on by default")
	}
	if cfg.Bake.Mode != "spherical" {
		t.Errorf("default mode = %q, expected spherical", cfg.Bake.Mode)
	}
	if !cfg.Output.Pack || !cfg.Output.Index {
		t.Error("expected pack and index on by default")
	}
	if cfg.Render.Alpha != 1 || cfg.Render.AlphaBlend != 0.5 {
		t.Errorf("default render alpha = %f/%f", cfg.Render.Alpha, cfg.Render.AlphaBlend)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boimp.yaml")

	cfg := Default()
	cfg.Bake.GridSize = 16
	cfg.Bake.Mode = "Horizontal"
	cfg.Output.Path = "tree.boimp"
	cfg.Logging.Level = "debug"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boimp.yaml")
	partial := "bake:\n  grid_size: 4\n"
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("writing partial config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg.Bake.GridSize != 4 {
		t.Errorf("grid size = %d, expected override 4", cfg.Bake.GridSize)
	}
	if cfg.Bake.TileSize != 64 {
		t.Errorf("tile size = %d, expected default 64 to survive", cfg.Bake.TileSize)
	}
}
