// Package config handles bake tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Bake    BakeConfig    `yaml:"bake"`
	Render  RenderConfig  `yaml:"render"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// BakeConfig holds capture parameters for a bake session.
type BakeConfig struct {
	Radius        float32 `yaml:"radius"`
	GridSize      int     `yaml:"grid_size"`
	TileSize      int     `yaml:"tile_size"`
	Mode          string  `yaml:"mode"` // spherical, hemispherical or Horizontal
	Multisample   int     `yaml:"multisample"`
	MaxTilesFrame int     `yaml:"max_tiles_per_frame"`
	WaitForRender bool    `yaml:"wait_for_render"`
	Continuous    bool    `yaml:"continuous"`
}

// RenderConfig holds asset-load-time render options.
type RenderConfig struct {
	VertexBillboard bool    `yaml:"vertex_billboard"`
	Multisample     bool    `yaml:"multisample"`
	UseSourceUVY    bool    `yaml:"use_source_uv_y"`
	Alpha           float32 `yaml:"alpha"`
	AlphaBlend      float32 `yaml:"alpha_blend"`
}

// OutputConfig holds asset writing options.
type OutputConfig struct {
	Path  string `yaml:"path"`
	Pack  bool   `yaml:"pack"`
	Index bool   `yaml:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Bake: BakeConfig{
			Radius:        1,
			GridSize:      8,
			TileSize:      64,
			Mode:          "spherical",
			Multisample:   8,
			MaxTilesFrame: 0, // unlimited
			WaitForRender: true,
			Continuous:    false,
		},
		Render: RenderConfig{
			VertexBillboard: false,
			Multisample:     true,
			UseSourceUVY:    false,
			Alpha:           1,
			AlphaBlend:      0.5,
		},
		Output: OutputConfig{
			Path:  "out.boimp",
			Pack:  true,
			Index: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
