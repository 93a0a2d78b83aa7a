package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tinyrange/vpager/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	got := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	want := config.Default()
	if got.NFrames != want.NFrames || got.NBlocks != want.NBlocks || got.Base != want.Base {
		t.Fatalf("Load() on missing file = %+v, want defaults %+v", got, want)
	}
}

func TestLoadOverridesDefaultsPartially(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pager.yml")
	if err := os.WriteFile(path, []byte("nframes: 16\nnblocks: 32\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got := config.Load(path)
	if got.NFrames != 16 {
		t.Fatalf("NFrames = %d, want 16", got.NFrames)
	}
	if got.NBlocks != 32 {
		t.Fatalf("NBlocks = %d, want 32", got.NBlocks)
	}
	if got.PageSize != config.Default().PageSize {
		t.Fatalf("PageSize = %d, want default %d (unset in file)", got.PageSize, config.Default().PageSize)
	}
}

func TestLoadMalformedFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pager.yml")
	if err := os.WriteFile(path, []byte("not: [valid: yaml"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got := config.Load(path)
	want := config.Default()
	if got.NFrames != want.NFrames {
		t.Fatalf("Load() on malformed file = %+v, want defaults %+v", got, want)
	}
}
