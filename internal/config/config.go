// Package config handles viewer configuration loading and management.
package config

import "path/filepath"

// Config holds all viewer settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   CameraConfig   `yaml:"camera"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds window creation settings.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	VSync      bool     `yaml:"vsync"`
	ClearColor [3]uint8 `yaml:"clear_color"` // RGB, 0-255
	DrawBounds bool     `yaml:"draw_bounds"`
}

// CameraConfig holds free-fly camera settings.
type CameraConfig struct {
	MoveSpeed   float32 `yaml:"move_speed"`
	Sensitivity float32 `yaml:"sensitivity"`
}

// AssetsConfig holds model asset paths.
type AssetsConfig struct {
	Dir    string   `yaml:"dir"`    // Base directory resolved against model paths
	Models []string `yaml:"models"` // glTF or GLB files loaded at startup
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ModelPaths returns the configured model files resolved against the
// assets directory. Absolute paths are kept as-is.
func (a AssetsConfig) ModelPaths() []string {
	paths := make([]string, 0, len(a.Models))
	for _, m := range a.Models {
		if a.Dir == "" || filepath.IsAbs(m) {
			paths = append(paths, m)
			continue
		}
		paths = append(paths, filepath.Join(a.Dir, m))
	}
	return paths
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "prism",
			Width:  1280,
			Height: 720,
		},
		Graphics: GraphicsConfig{
			VSync:      true,
			ClearColor: [3]uint8{9, 46, 32},
			DrawBounds: false,
		},
		Camera: CameraConfig{
			MoveSpeed:   6,
			Sensitivity: 0.004,
		},
		Assets: AssetsConfig{
			Dir:    "assets",
			Models: []string{"CesiumMilkTruck.glb"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
