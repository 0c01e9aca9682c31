// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Camera  CameraConfig  `yaml:"camera"`
	Model   ModelConfig   `yaml:"model"`
	Shaders ShaderConfig  `yaml:"shaders"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string     `yaml:"title"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

// CameraConfig holds the initial camera pose, tuning and projection.
type CameraConfig struct {
	Position    [3]float32 `yaml:"position"`
	Yaw         float32    `yaml:"yaw"`   // degrees
	Pitch       float32    `yaml:"pitch"` // degrees
	Speed       float32    `yaml:"speed"` // units per second
	Sensitivity float32    `yaml:"sensitivity"`
	FOV         float32    `yaml:"fov"` // vertical, degrees
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
}

// ModelConfig holds the model loaded at startup and its placement.
type ModelConfig struct {
	Path string `yaml:"path"`
	// Normalize recenters the model at the origin and scales its largest
	// extent to FitSize.
	Normalize bool    `yaml:"normalize"`
	FitSize   float32 `yaml:"fit_size"`
	// SpinSpeed rotates the model around Y, in degrees per second.
	SpinSpeed float32 `yaml:"spin_speed"`
	// UVScale multiplies texture coordinates, tiling textures above 1.
	UVScale [2]float32 `yaml:"uv_scale"`
}

// ShaderConfig holds shader source paths. Empty paths use the embedded defaults.
type ShaderConfig struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// ExportConfig holds frame export settings.
type ExportConfig struct {
	Dir         string `yaml:"dir"`
	Prefix      string `yaml:"prefix"`
	Format      string `yaml:"format"` // png, jpeg or bmp
	JPEGQuality int    `yaml:"jpeg_quality"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "Model Viewer",
			Width:      1000,
			Height:     700,
			Fullscreen: false,
			VSync:      true,
			ClearColor: [4]float32{0.1, 0.1, 0.1, 1.0},
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 0, 3},
			Yaw:         -90,
			Pitch:       0,
			Speed:       2.5,
			Sensitivity: 0.1,
			FOV:         45,
			Near:        0.1,
			Far:         100,
		},
		Model: ModelConfig{
			Normalize: true,
			FitSize:   2,
			UVScale:   [2]float32{1, 1},
		},
		Export: ExportConfig{
			Dir:         "screenshots",
			Prefix:      "frame",
			Format:      "png",
			JPEGQuality: 90,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
