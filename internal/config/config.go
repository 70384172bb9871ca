// Package config loads the optional TOML settings shared by the translator and
// the interpreter. Command-line flags are applied on top of the loaded values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/zachspang/asciimovie/internal/ascii"
	"github.com/zachspang/asciimovie/internal/terminal"
	"github.com/zachspang/asciimovie/internal/video"
)

const (
	defaultConfigPath  = "~/.config/asciimovie/config.toml"
	projectConfigName  = "asciimovie.toml"
	defaultCharset     = "medium"
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultClearMethod = terminal.KindAuto
)

// Render controls how frames are rasterized.
type Render struct {
	// Width is the number of columns; 0 fits the current terminal.
	Width   int    `toml:"width"`
	Charset string `toml:"charset"`
	// Chars overrides Charset with a literal ramp, light to dark.
	Chars      string  `toml:"chars"`
	Color      bool    `toml:"color"`
	Filter     string  `toml:"filter"`
	Gamma      float64 `toml:"gamma"`
	Contrast   float64 `toml:"contrast"`
	Brightness float64 `toml:"brightness"`
	Invert     bool    `toml:"invert"`
}

// Playback controls the interpreter's display.
type Playback struct {
	Clear      string `toml:"clear"`
	HideCursor bool   `toml:"hide_cursor"`
}

// Decode selects the video decoder.
type Decode struct {
	Backend string `toml:"backend"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values.
type Config struct {
	Render   Render   `toml:"render"`
	Playback Playback `toml:"playback"`
	Decode   Decode   `toml:"decode"`
	Logging  Logging  `toml:"logging"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Render: Render{
			Width:   ascii.DefaultColumns,
			Charset: defaultCharset,
			Filter:  ascii.DefaultFilter,
		},
		Playback: Playback{
			Clear:      defaultClearMethod,
			HideCursor: true,
		},
		Decode: Decode{
			Backend: video.BackendFFmpeg,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// Ramp returns the character ramp selected by the render settings.
func (r Render) Ramp() ascii.Ramp {
	if r.Chars != "" {
		return ascii.NewRamp(r.Chars)
	}
	ramp, _ := ascii.Preset(r.Charset)
	return ramp
}

// Adjustments returns the tone corrections selected by the render settings.
func (r Render) Adjustments() ascii.Adjustments {
	return ascii.Adjustments{
		Gamma:      r.Gamma,
		Contrast:   r.Contrast,
		Brightness: r.Brightness,
		Invert:     r.Invert,
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. An empty path
// looks in the default location and then the working directory; a missing
// file is not an error and yields Default(). exists reports whether a file
// was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() {
	c.Render.Charset = strings.ToLower(strings.TrimSpace(c.Render.Charset))
	if c.Render.Charset == "" {
		c.Render.Charset = defaultCharset
	}
	c.Render.Filter = strings.ToLower(strings.TrimSpace(c.Render.Filter))
	if c.Render.Filter == "" {
		c.Render.Filter = ascii.DefaultFilter
	}

	c.Playback.Clear = strings.ToLower(strings.TrimSpace(c.Playback.Clear))
	if c.Playback.Clear == "" {
		c.Playback.Clear = defaultClearMethod
	}

	c.Decode.Backend = strings.ToLower(strings.TrimSpace(c.Decode.Backend))
	if c.Decode.Backend == "" {
		c.Decode.Backend = video.BackendFFmpeg
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

// Normalize fills empty settings with defaults and canonicalises names. Call
// it after applying command-line overrides and before Validate.
func (c *Config) Normalize() {
	c.normalize()
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
