// Package config loads application settings from a TOML file, a .env file
// and CHITRA_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ayusman/chitra/internal/canvas"
	"github.com/ayusman/chitra/internal/detector"
	"github.com/ayusman/chitra/internal/paint"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds application configuration.
type Config struct {
	Camera   CameraConfig   `mapstructure:"camera"`
	Window   WindowConfig   `mapstructure:"window"`
	Detector DetectorConfig `mapstructure:"detector"`
	Brush    BrushConfig    `mapstructure:"brush"`
	Palette  PaletteConfig  `mapstructure:"palette"`
	Canvas   CanvasConfig   `mapstructure:"canvas"`
	Cursor   CursorConfig   `mapstructure:"cursor"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Tray     TrayConfig     `mapstructure:"tray"`
}

// CameraConfig selects the capture device.
type CameraConfig struct {
	ID     int  `mapstructure:"id"`
	Width  int  `mapstructure:"width"`
	Height int  `mapstructure:"height"`
	Mirror bool `mapstructure:"mirror"`
}

// WindowConfig controls the preview window.
type WindowConfig struct {
	Title   string `mapstructure:"title"`
	Show    bool   `mapstructure:"show"`
	QuitKey string `mapstructure:"quit_key"`
	ShowFPS bool   `mapstructure:"show_fps"`
}

// DetectorConfig tunes the hand landmark service.
type DetectorConfig struct {
	MaxHands              int     `mapstructure:"max_hands"`
	MinConfidence         float64 `mapstructure:"min_confidence"`
	MinTrackingConfidence float64 `mapstructure:"min_tracking_confidence"`
	Script                string  `mapstructure:"script"`
}

// BrushConfig sets stroke widths in pixels.
type BrushConfig struct {
	Size       int `mapstructure:"size"`
	EraserSize int `mapstructure:"eraser_size"`
}

// PaletteConfig sets the selection bar geometry.
type PaletteConfig struct {
	BarHeight int `mapstructure:"bar_height"`
}

// CanvasConfig selects the compositor backend.
type CanvasConfig struct {
	Backend string `mapstructure:"backend"`
}

// CursorConfig selects when the stroke cursor is forgotten.
type CursorConfig struct {
	Policy string `mapstructure:"policy"`
}

// StoreConfig controls the session journal.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ServerConfig controls the HTTP server. An empty address disables it.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// TrayConfig controls the system tray icon.
type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DataDir returns the directory for application data, ~/.chitra.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chitra"
	}
	return filepath.Join(home, ".chitra")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("camera.id", 0)
	v.SetDefault("camera.width", 1280)
	v.SetDefault("camera.height", 720)
	v.SetDefault("camera.mirror", true)

	v.SetDefault("window.title", "Chitra")
	v.SetDefault("window.show", true)
	v.SetDefault("window.quit_key", "q")
	v.SetDefault("window.show_fps", false)

	v.SetDefault("detector.max_hands", 1)
	v.SetDefault("detector.min_confidence", 0.5)
	v.SetDefault("detector.min_tracking_confidence", 0.5)
	v.SetDefault("detector.script", "")

	v.SetDefault("brush.size", paint.DefaultBrushSize)
	v.SetDefault("brush.eraser_size", paint.EraserSize)
	v.SetDefault("palette.bar_height", paint.DefaultBarHeight)

	v.SetDefault("canvas.backend", string(canvas.BackendOpenCV))
	v.SetDefault("cursor.policy", paint.ResetOnLeave.String())

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", filepath.Join(DataDir(), "chitra.db"))

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("tray.enabled", false)
}

// Load reads configuration. A .env file (CHITRA_ENV_FILE, default ./.env)
// is loaded into the environment first if it exists; existing variables win.
// The TOML file comes from CHITRA_CONFIG or ~/.config/chitra/config.toml.
// Env var overrides use prefix CHITRA_, e.g. CHITRA_CAMERA_ID.
func Load() (Config, error) {
	envFile := os.Getenv("CHITRA_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("CHITRA_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "chitra"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CHITRA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist and parse.
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var problems []string

	if c.Camera.ID < 0 {
		problems = append(problems, "camera.id must not be negative")
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		problems = append(problems, "camera.width and camera.height must be positive")
	}
	if utf8.RuneCountInString(c.Window.QuitKey) != 1 {
		problems = append(problems, "window.quit_key must be a single character")
	}
	if c.Detector.MaxHands < 1 {
		problems = append(problems, "detector.max_hands must be at least 1")
	}
	if !unit(c.Detector.MinConfidence) || !unit(c.Detector.MinTrackingConfidence) {
		problems = append(problems, "detector confidences must be within [0, 1]")
	}
	if c.Brush.Size <= 0 || c.Brush.EraserSize <= 0 {
		problems = append(problems, "brush sizes must be positive")
	}
	if c.Palette.BarHeight <= 0 {
		problems = append(problems, "palette.bar_height must be positive")
	}
	if _, err := canvas.ParseBackend(c.Canvas.Backend); err != nil {
		problems = append(problems, "canvas.backend: "+err.Error())
	}
	if _, err := paint.ParseCursorPolicy(c.Cursor.Policy); err != nil {
		problems = append(problems, "cursor.policy: "+err.Error())
	}
	if c.Store.Enabled && c.Store.Path == "" {
		problems = append(problems, "store.path is required when the store is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func unit(f float64) bool {
	return f >= 0 && f <= 1
}

// QuitKey returns the key that ends a session.
func (c Config) QuitKey() rune {
	r, _ := utf8.DecodeRuneInString(c.Window.QuitKey)
	return r
}

// Backend returns the compositor backend. Call after Validate.
func (c Config) Backend() canvas.Backend {
	b, _ := canvas.ParseBackend(c.Canvas.Backend)
	return b
}

// CursorPolicy returns the stroke cursor policy. Call after Validate.
func (c Config) CursorPolicy() paint.CursorPolicy {
	p, _ := paint.ParseCursorPolicy(c.Cursor.Policy)
	return p
}

// PaintPalette returns the selection bar configured for the brush sizes.
func (c Config) PaintPalette() paint.Palette {
	p := paint.DefaultPalette(c.Brush.Size, c.Brush.EraserSize)
	if c.Palette.BarHeight > 0 {
		p.BarHeight = c.Palette.BarHeight
	}
	return p
}

// DetectorConfig returns the landmark detector settings.
func (c Config) DetectorConfig() detector.Config {
	d := detector.DefaultConfig()
	d.MaxHands = c.Detector.MaxHands
	d.MinConfidence = c.Detector.MinConfidence
	d.MinTrackingConf = c.Detector.MinTrackingConfidence
	if c.Detector.Script != "" {
		d.ScriptPath = c.Detector.Script
	}
	return d
}
