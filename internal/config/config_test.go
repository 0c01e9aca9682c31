package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1000 || cfg.Window.Height != 700 {
		t.Errorf("expected 1000x700, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Camera.Position != [3]float32{0, 0, 3} {
		t.Errorf("expected camera at (0,0,3), got %v", cfg.Camera.Position)
	}
	if cfg.Camera.Yaw != -90 || cfg.Camera.Pitch != 0 {
		t.Errorf("expected yaw -90 pitch 0, got %v %v", cfg.Camera.Yaw, cfg.Camera.Pitch)
	}
	if cfg.Camera.FOV != 45 {
		t.Errorf("expected fov 45, got %v", cfg.Camera.FOV)
	}

	if cfg.Model.UVScale != [2]float32{1, 1} {
		t.Errorf("expected uv scale (1,1), got %v", cfg.Model.UVScale)
	}

	if cfg.Export.Format != "png" {
		t.Errorf("expected export format png, got %s", cfg.Export.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

camera:
  position: [1, 2, 5]
  yaw: -45
  speed: 10
  fov: 60

model:
  path: "assets/backpack.obj"
  spin_speed: 30

shaders:
  vertex: "shaders/custom.vert"

export:
  dir: "/tmp/frames"
  format: "jpeg"
  jpeg_quality: 75

logging:
  level: "debug"
  log_file: "viewer.log"
  max_backups: 5
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen || cfg.Window.VSync {
		t.Error("window flags not loaded")
	}
	if cfg.Camera.Position != [3]float32{1, 2, 5} {
		t.Errorf("expected camera position [1 2 5], got %v", cfg.Camera.Position)
	}
	if cfg.Camera.Yaw != -45 || cfg.Camera.Speed != 10 || cfg.Camera.FOV != 60 {
		t.Errorf("camera not loaded: %+v", cfg.Camera)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Camera.Sensitivity != 0.1 {
		t.Errorf("expected default sensitivity 0.1, got %v", cfg.Camera.Sensitivity)
	}
	if cfg.Model.Path != "assets/backpack.obj" || cfg.Model.SpinSpeed != 30 {
		t.Errorf("model not loaded: %+v", cfg.Model)
	}
	if !cfg.Model.Normalize {
		t.Error("expected default normalize to survive partial model section")
	}
	if cfg.Shaders.Vertex != "shaders/custom.vert" || cfg.Shaders.Fragment != "" {
		t.Errorf("shaders not loaded: %+v", cfg.Shaders)
	}
	if cfg.Export.Format != "jpeg" || cfg.Export.JPEGQuality != 75 {
		t.Errorf("export not loaded: %+v", cfg.Export)
	}
	if cfg.Export.Prefix != "frame" {
		t.Errorf("expected default prefix, got %s", cfg.Export.Prefix)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "viewer.log" || cfg.Logging.MaxBackups != 5 {
		t.Errorf("logging not loaded: %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero width", func(c *Config) { c.Window.Width = 0 }, true},
		{"near zero", func(c *Config) { c.Camera.Near = 0 }, true},
		{"far before near", func(c *Config) { c.Camera.Far = 0.05 }, true},
		{"fov too wide", func(c *Config) { c.Camera.FOV = 180 }, true},
		{"jpg alias", func(c *Config) { c.Export.Format = "jpg" }, false},
		{"bmp", func(c *Config) { c.Export.Format = "bmp" }, false},
		{"tiff", func(c *Config) { c.Export.Format = "tiff" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "model flag",
			setup: func() { *flagModel = "models/cube.glb" },
			verify: func(cfg *Config) {
				if cfg.Model.Path != "models/cube.glb" {
					t.Errorf("expected model path models/cube.glb, got %s", cfg.Model.Path)
				}
			},
			teardown: func() { *flagModel = "" },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name: "shader flags",
			setup: func() {
				*flagVertex = "a.vert"
				*flagFragment = "a.frag"
			},
			verify: func(cfg *Config) {
				if cfg.Shaders.Vertex != "a.vert" || cfg.Shaders.Fragment != "a.frag" {
					t.Errorf("shader paths not applied: %+v", cfg.Shaders)
				}
			},
			teardown: func() {
				*flagVertex = ""
				*flagFragment = ""
			},
		},
		{
			name:  "export dir flag",
			setup: func() { *flagExportDir = "/tmp/out" },
			verify: func(cfg *Config) {
				if cfg.Export.Dir != "/tmp/out" {
					t.Errorf("expected export dir /tmp/out, got %s", cfg.Export.Dir)
				}
			},
			teardown: func() { *flagExportDir = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("export:\n  format: gif\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected validation error for gif export format")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Model.Path = "scene.gltf"
	cfg.Camera.Speed = 7
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile() error = %v", err)
	}
	if loaded.Model.Path != "scene.gltf" || loaded.Camera.Speed != 7 {
		t.Errorf("round trip lost values: model=%s speed=%v", loaded.Model.Path, loaded.Camera.Speed)
	}
}
