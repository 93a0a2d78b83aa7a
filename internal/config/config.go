// Package config loads the pager's address-space and table-size constants
// from an optional YAML file, the same "missing file means defaults, bad
// file means warn and fall back" tolerance cmd/ccapp/site_config.go uses
// for its own deployment config.
package config

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything New needs to build a Pager and a simmmu.MMU for
// it: the address-space bounds, table sizes, and a named list of client
// processes the harness can spin up.
type Config struct {
	Base     uint64 `yaml:"base"`
	Max      uint64 `yaml:"max"`
	PageSize uint64 `yaml:"page_size"`
	NFrames  int    `yaml:"nframes"`
	NBlocks  int    `yaml:"nblocks"`

	// Processes names fixture client processes the harness warms up in its
	// bulk pass, each identified by an arbitrary pid and a page count to
	// extend and fault in up front.
	Processes []ProcessFixture `yaml:"processes"`
}

// ProcessFixture describes one client process the harness should create
// and warm up.
type ProcessFixture struct {
	Pid   int    `yaml:"pid"`
	Name  string `yaml:"name"`
	Pages int    `yaml:"pages"`
}

// Default returns the configuration used when no file is present: BASE
// 0x600000 and 4096-byte pages as in the spec's worked example (§8), a
// 64-page space with 4 frames and 8 blocks, and a single two-page fixture
// process.
func Default() Config {
	return Config{
		Base:     0x0000600000,
		Max:      0x0000600000 + 4096*64 - 1,
		PageSize: 4096,
		NFrames:  4,
		NBlocks:  8,
		Processes: []ProcessFixture{
			{Pid: 1, Name: "default", Pages: 2},
		},
	}
}

// Load reads path and parses it as YAML into a Config seeded with
// Default()'s values, so a partial file only overrides the fields it sets.
// A missing file is not an error: Load returns Default() and logs at
// Debug, mirroring LoadSiteConfig's "absent config is the common case"
// stance.
func Load(path string) Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read pager config", "path", path, "error", err)
		} else {
			slog.Debug("no pager config file, using defaults", "path", path)
		}
		return cfg
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Warn("failed to parse pager config, using defaults", "path", path, "error", err)
		return Default()
	}

	slog.Info("loaded pager config", "path", path, "nframes", cfg.NFrames, "nblocks", cfg.NBlocks)
	return cfg
}
