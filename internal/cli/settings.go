// Package cli holds the flag handling shared by the translator and interpreter
// commands: binding flags, layering them over the config file and building
// the logger and render options from the result.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/zachspang/asciimovie/internal/ascii"
	"github.com/zachspang/asciimovie/internal/config"
	"github.com/zachspang/asciimovie/internal/logging"
	"github.com/zachspang/asciimovie/internal/terminal"
	"github.com/zachspang/asciimovie/internal/translate"
)

// Settings receives flag values. A flag only overrides the config file when it
// was given on the command line.
type Settings struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string

	Width      int
	Charset    string
	Chars      string
	Color      bool
	Filter     string
	Gamma      float64
	Contrast   float64
	Brightness float64
	Invert     bool
	Backend    string

	Clear      string
	HideCursor bool
}

// BindCommon registers the config and logging flags.
func (s *Settings) BindCommon(fs *pflag.FlagSet) {
	fs.StringVar(&s.ConfigPath, "config", "", "path to a TOML config file (default ~/.config/asciimovie/config.toml or ./asciimovie.toml)")
	fs.StringVar(&s.LogLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.StringVar(&s.LogFormat, "log-format", "console", "log format: console or json")
}

// BindRender registers the rasterization and decoding flags.
func (s *Settings) BindRender(fs *pflag.FlagSet) {
	fs.IntVarP(&s.Width, "width", "w", ascii.DefaultColumns, "width of the ASCII art in characters, 0 to fit the terminal")
	fs.StringVar(&s.Charset, "charset", "medium", "character ramp preset: "+strings.Join(ascii.PresetNames(), ", "))
	fs.StringVar(&s.Chars, "chars", "", "literal character ramp from light to dark, overrides --charset")
	fs.BoolVar(&s.Color, "color", false, "emit 24-bit ANSI color for each character")
	fs.StringVar(&s.Filter, "filter", ascii.DefaultFilter, "resampling filter: "+strings.Join(ascii.FilterNames(), ", "))
	fs.Float64Var(&s.Gamma, "gamma", 0, "gamma correction applied before rendering, 1 keeps the original")
	fs.Float64Var(&s.Contrast, "contrast", 0, "contrast adjustment in percent (-100 to 100)")
	fs.Float64Var(&s.Brightness, "brightness", 0, "brightness adjustment in percent (-100 to 100)")
	fs.BoolVar(&s.Invert, "invert", false, "invert brightness, for light terminal backgrounds")
	fs.StringVar(&s.Backend, "backend", "ffmpeg", "video decoder: ffmpeg or vidio")
}

// BindPlayback registers the display flags.
func (s *Settings) BindPlayback(fs *pflag.FlagSet) {
	fs.StringVar(&s.Clear, "clear", terminal.KindAuto, "how to clear the screen between frames: auto, ansi or command")
	fs.BoolVar(&s.HideCursor, "hide-cursor", true, "hide the cursor during playback")
}

// Resolve loads the config file and applies every flag that was set.
func (s *Settings) Resolve(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, _, _, err := config.Load(s.ConfigPath)
	if err != nil {
		return nil, err
	}

	changed := fs.Changed
	if changed("log-level") {
		cfg.Logging.Level = s.LogLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = s.LogFormat
	}
	if changed("width") {
		cfg.Render.Width = s.Width
	}
	if changed("charset") {
		cfg.Render.Charset = s.Charset
	}
	if changed("chars") {
		cfg.Render.Chars = s.Chars
	}
	if changed("color") {
		cfg.Render.Color = s.Color
	}
	if changed("filter") {
		cfg.Render.Filter = s.Filter
	}
	if changed("gamma") {
		cfg.Render.Gamma = s.Gamma
	}
	if changed("contrast") {
		cfg.Render.Contrast = s.Contrast
	}
	if changed("brightness") {
		cfg.Render.Brightness = s.Brightness
	}
	if changed("invert") {
		cfg.Render.Invert = s.Invert
	}
	if changed("backend") {
		cfg.Decode.Backend = s.Backend
	}
	if changed("clear") {
		cfg.Playback.Clear = s.Clear
	}
	if changed("hide-cursor") {
		cfg.Playback.HideCursor = s.HideCursor
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Setup resolves the configuration and builds the logger writing to w. When
// resolution fails the returned logger is still usable for reporting the
// error.
func (s *Settings) Setup(fs *pflag.FlagSet, w io.Writer) (*config.Config, *slog.Logger, error) {
	fallback, ferr := logging.New(logging.Options{Level: s.LogLevel, Format: s.LogFormat, Writer: w})
	if ferr != nil {
		fallback, _ = logging.New(logging.Options{Writer: w})
	}
	cfg, err := s.Resolve(fs)
	if err != nil {
		return nil, fallback, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Writer: w})
	if err != nil {
		return nil, fallback, err
	}
	return cfg, logger, nil
}

// TranslateOptions builds the render half of translate.Options from cfg.
// columns is consulted only when the configured width is 0.
func TranslateOptions(cfg *config.Config, columns func() (int, error)) (translate.Options, error) {
	width := cfg.Render.Width
	if width == 0 {
		cols, err := columns()
		if err != nil {
			return translate.Options{}, fmt.Errorf("fit to terminal: %w", err)
		}
		if cols < 1 {
			return translate.Options{}, fmt.Errorf("fit to terminal: terminal reports %d columns", cols)
		}
		width = cols
	}
	resampler, err := ascii.Filter(cfg.Render.Filter)
	if err != nil {
		return translate.Options{}, err
	}
	charset := cfg.Render.Charset
	if cfg.Render.Chars != "" {
		charset = cfg.Render.Chars
	}
	return translate.Options{
		Width:     width,
		Ramp:      cfg.Render.Ramp(),
		Charset:   charset,
		Color:     cfg.Render.Color,
		Resampler: resampler,
		Adjust:    cfg.Render.Adjustments(),
		Backend:   cfg.Decode.Backend,
	}, nil
}
