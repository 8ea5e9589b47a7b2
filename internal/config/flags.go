package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagGrid     = flag.Int("grid", 0, "Capture grid size")
	flagTile     = flag.Int("tile", 0, "Tile size in pixels")
	flagMode     = flag.String("mode", "", "Grid mode: spherical, hemispherical or Horizontal")
	flagSamples  = flag.Int("samples", 0, "Multisample factor")
	flagOutput   = flag.String("o", "", "Output asset path")
	flagNoPack   = flag.Bool("no-pack", false, "Disable tile trimming")
	flagNoIndex  = flag.Bool("no-index", false, "Disable palette indexing")
	flagNoWait   = flag.Bool("no-wait", false, "Do not wait for scene readiness")
	flagContinue = flag.Bool("continuous", false, "Re-bake every frame")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagGrid > 0 {
		cfg.Bake.GridSize = *flagGrid
	}
	if *flagTile > 0 {
		cfg.Bake.TileSize = *flagTile
	}
	if *flagMode != "" {
		cfg.Bake.Mode = *flagMode
	}
	if *flagSamples > 0 {
		cfg.Bake.Multisample = *flagSamples
	}
	if *flagOutput != "" {
		cfg.Output.Path = *flagOutput
	}
	if *flagNoPack {
		cfg.Output.Pack = false
	}
	if *flagNoIndex {
		cfg.Output.Index = false
	}
	if *flagNoWait {
		cfg.Bake.WaitForRender = false
	}
	if *flagContinue {
		cfg.Bake.Continuous = true
	}
}
