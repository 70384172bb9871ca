package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zachspang/asciimovie/internal/ascii"
	"github.com/zachspang/asciimovie/internal/terminal"
	"github.com/zachspang/asciimovie/internal/video"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateDecode(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRender() error {
	r := c.Render
	if r.Width < 0 {
		return fmt.Errorf("render.width must be positive, or 0 to fit the terminal (got %d)", r.Width)
	}
	if r.Chars == "" {
		if _, ok := ascii.Preset(r.Charset); !ok {
			return fmt.Errorf("render.charset %q is not one of %s", r.Charset, strings.Join(ascii.PresetNames(), ", "))
		}
	}
	if _, err := ascii.Filter(r.Filter); err != nil {
		return fmt.Errorf("render.filter: %w", err)
	}
	if r.Gamma < 0 {
		return fmt.Errorf("render.gamma must not be negative (got %g)", r.Gamma)
	}
	if r.Contrast < -100 || r.Contrast > 100 {
		return fmt.Errorf("render.contrast must be within [-100, 100] (got %g)", r.Contrast)
	}
	if r.Brightness < -100 || r.Brightness > 100 {
		return fmt.Errorf("render.brightness must be within [-100, 100] (got %g)", r.Brightness)
	}
	return nil
}

func (c *Config) validatePlayback() error {
	kinds := []string{terminal.KindAuto, terminal.KindANSI, terminal.KindCommand}
	if !slices.Contains(kinds, c.Playback.Clear) {
		return fmt.Errorf("playback.clear %q is not one of %s", c.Playback.Clear, strings.Join(kinds, ", "))
	}
	return nil
}

func (c *Config) validateDecode() error {
	backends := []string{video.BackendFFmpeg, video.BackendVidio}
	if !slices.Contains(backends, c.Decode.Backend) {
		return fmt.Errorf("decode.backend %q is not one of %s", c.Decode.Backend, strings.Join(backends, ", "))
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}
	return nil
}
