// Package config loads the board settings from a TOML file layered over defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"SyncBoard/internal/session"
	"SyncBoard/internal/viewport"
)

type Zoom struct {
	Min               float64 `toml:"min_zoom"`
	Max               float64 `toml:"max_zoom"`
	WheelFactor       float64 `toml:"wheel_factor"`
	SimplifyTolerance float64 `toml:"simplify_tolerance"`
}

type Timing struct {
	ResizeDebounce time.Duration `toml:"resize_debounce"`
	InputThrottle  time.Duration `toml:"input_throttle"`
	StrokeThrottle time.Duration `toml:"stroke_throttle"`
	FrameInterval  time.Duration `toml:"frame_interval"`
	PersistIdle    time.Duration `toml:"persist_idle"`
}

type Host struct {
	Port   int    `toml:"port"`
	Board  string `toml:"board"`
	DBPath string `toml:"db_path"`
	// Name is the mDNS instance name the host advertises.
	Name string `toml:"name"`
}

type Toolbar struct {
	BrushMin   int    `toml:"brush_min"`
	BrushMax   int    `toml:"brush_max"`
	BrushSize  int    `toml:"brush_size"`
	EraserMin  int    `toml:"eraser_min"`
	EraserMax  int    `toml:"eraser_max"`
	EraserSize int    `toml:"eraser_size"`
	BrushColor string `toml:"brush_color"`
}

// Config is the full set of tunables.
type Config struct {
	Zoom    Zoom    `toml:"zoom"`
	Timing  Timing  `toml:"timing"`
	Host    Host    `toml:"host"`
	Toolbar Toolbar `toml:"toolbar"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Zoom: Zoom{
			Min:               0.1,
			Max:               10,
			WheelFactor:       1.05,
			SimplifyTolerance: 0.5,
		},
		Timing: Timing{
			ResizeDebounce: 250 * time.Millisecond,
			InputThrottle:  10 * time.Millisecond,
			StrokeThrottle: 20 * time.Millisecond,
			FrameInterval:  16 * time.Millisecond,
			PersistIdle:    250 * time.Millisecond,
		},
		Host: Host{
			Port:  8888,
			Board: "default",
			Name:  "SyncBoard",
		},
		Toolbar: Toolbar{
			BrushMin:   1,
			BrushMax:   30,
			BrushSize:  5,
			EraserMin:  1,
			EraserMax:  200,
			EraserSize: 20,
			BrushColor: "#000000",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are an error so typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges that would otherwise break the viewport or toolbar.
func (c Config) Validate() error {
	var errs []error
	if c.Zoom.Min <= 0 || c.Zoom.Max <= 0 {
		errs = append(errs, fmt.Errorf("zoom bounds must be positive, got %v..%v", c.Zoom.Min, c.Zoom.Max))
	}
	if c.Zoom.Min > c.Zoom.Max {
		errs = append(errs, fmt.Errorf("min_zoom %v is above max_zoom %v", c.Zoom.Min, c.Zoom.Max))
	}
	if c.Zoom.WheelFactor <= 1 {
		errs = append(errs, fmt.Errorf("wheel_factor must be above 1, got %v", c.Zoom.WheelFactor))
	}
	if c.Zoom.SimplifyTolerance < 0 {
		errs = append(errs, fmt.Errorf("simplify_tolerance must not be negative, got %v", c.Zoom.SimplifyTolerance))
	}
	if c.Timing.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame_interval must be positive, got %v", c.Timing.FrameInterval))
	}
	if c.Timing.ResizeDebounce < 0 || c.Timing.InputThrottle < 0 || c.Timing.StrokeThrottle < 0 || c.Timing.PersistIdle < 0 {
		errs = append(errs, errors.New("timings must not be negative"))
	}
	if c.Host.Port <= 0 || c.Host.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Host.Port))
	}
	if c.Host.Board == "" {
		errs = append(errs, errors.New("board must not be empty"))
	}
	if c.Toolbar.BrushMin < 1 || c.Toolbar.BrushMin > c.Toolbar.BrushMax {
		errs = append(errs, fmt.Errorf("brush size range %d..%d is invalid", c.Toolbar.BrushMin, c.Toolbar.BrushMax))
	}
	if c.Toolbar.EraserMin < 1 || c.Toolbar.EraserMin > c.Toolbar.EraserMax {
		errs = append(errs, fmt.Errorf("eraser size range %d..%d is invalid", c.Toolbar.EraserMin, c.Toolbar.EraserMax))
	}
	return errors.Join(errs...)
}

// Viewport returns the viewport controller settings.
func (c Config) Viewport() viewport.Config {
	return viewport.Config{
		MinZoom:        c.Zoom.Min,
		MaxZoom:        c.Zoom.Max,
		WheelFactor:    c.Zoom.WheelFactor,
		ResizeDebounce: c.Timing.ResizeDebounce,
	}
}

// Session returns the stroke capture settings.
func (c Config) Session() session.Config {
	return session.Config{
		SimplifyTolerance: c.Zoom.SimplifyTolerance,
		InputThrottle:     c.Timing.InputThrottle,
		StrokeThrottle:    c.Timing.StrokeThrottle,
	}
}

// Limits returns the toolbar bounds and defaults.
func (c Config) Limits() session.Limits {
	return session.Limits{
		BrushMin:      c.Toolbar.BrushMin,
		BrushMax:      c.Toolbar.BrushMax,
		BrushDefault:  c.Toolbar.BrushSize,
		EraserMin:     c.Toolbar.EraserMin,
		EraserMax:     c.Toolbar.EraserMax,
		EraserDefault: c.Toolbar.EraserSize,
		Color:         c.Toolbar.BrushColor,
		IdlePersist:   c.Timing.PersistIdle,
	}
}
