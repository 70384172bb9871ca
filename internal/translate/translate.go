// Package translate drives a video decoder through the ascii renderer, either
// collecting the frames into a movie document or handing them to a consumer
// one at a time.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/zachspang/asciimovie/internal/ascii"
	"github.com/zachspang/asciimovie/internal/logging"
	"github.com/zachspang/asciimovie/internal/movie"
	"github.com/zachspang/asciimovie/internal/video"
)

// DefaultProgressEvery is how many frames pass between progress log lines.
const DefaultProgressEvery = 100

// Options configures a translation.
type Options struct {
	Input  string
	Output string
	// Width is the number of columns per frame.
	Width int
	Ramp  ascii.Ramp
	// Charset is recorded in the document when set.
	Charset   string
	Color     bool
	Resampler ascii.Resampler
	Adjust    ascii.Adjustments
	Backend   string

	ProgressEvery int
	// Progress receives a progress bar; nil disables it.
	Progress io.Writer
	// Open defaults to video.Open.
	Open   video.Opener
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = ascii.DefaultColumns
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.Open == nil {
		o.Open = video.Open
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	return o
}

func (o Options) renderer() (*ascii.Renderer, error) {
	var opts []ascii.Option
	if len(o.Ramp) > 0 {
		opts = append(opts, ascii.WithRamp(o.Ramp))
	}
	if o.Resampler != nil {
		opts = append(opts, ascii.WithResampler(o.Resampler))
	}
	if !o.Adjust.IsZero() {
		opts = append(opts, ascii.WithAdjustments(o.Adjust))
	}
	if o.Color {
		opts = append(opts, ascii.WithColor())
	}
	return ascii.NewRenderer(o.Width, opts...)
}

// ProgressWriter returns f when it is a terminal and nil otherwise, so a
// progress bar never ends up in redirected output.
func ProgressWriter(f *os.File) io.Writer {
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return f
	}
	return nil
}

// Run converts opts.Input into a document and writes it to opts.Output. The
// output file is only written once every frame has been rendered, so a failed
// run leaves no file behind.
func Run(ctx context.Context, opts Options) (*movie.Document, error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	var frames []string
	info, err := Stream(ctx, opts, func(frame string) error {
		frames = append(frames, frame)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The declared rate is written as is. Without one the document carries no
	// fps and playback falls back to movie.DefaultFPS.
	fps := info.FPS
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		logger.Warn("Video reports no frame rate. The document will have no 'fps' key.", "path", opts.Input)
		fps = 0
	}
	doc := &movie.Document{
		FPS:    fps,
		Width:  opts.Width,
		Frames: frames,
		Color:  opts.Color,
	}
	if opts.Charset != "" {
		doc.Charset = opts.Charset
	}
	if len(frames) > 0 {
		doc.Height = movie.LineCount(frames[0])
	}

	n, err := movie.Save(opts.Output, doc)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", opts.Output, err)
	}
	logger.Info(fmt.Sprintf("ASCII movie saved to %s", opts.Output),
		"frames", len(frames),
		"size", humanize.Bytes(uint64(n)),
	)
	return doc, nil
}

// Stream decodes opts.Input and passes each rendered frame to fn in order. It
// stops at the first error from the decoder, the renderer or fn, or when ctx
// is cancelled. The decoder is closed before Stream returns.
func Stream(ctx context.Context, opts Options, fn func(frame string) error) (info video.Info, err error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	renderer, err := opts.renderer()
	if err != nil {
		return video.Info{}, err
	}

	dec, err := opts.Open(ctx, opts.Input, opts.Backend)
	if err != nil {
		return video.Info{}, err
	}
	defer func() {
		if cerr := dec.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close decoder: %w", cerr)
		}
	}()

	info = dec.Info()
	logger.Info(fmt.Sprintf("Processing video: %s", opts.Input),
		"fps", info.FPS,
		"total_frames", info.Frames,
		"width", opts.Width,
	)
	logger.Debug("decoder ready",
		"backend", opts.Backend,
		"codec", info.Codec,
		"source_width", info.Width,
		"source_height", info.Height,
		"rows", ascii.Rows(info.Width, info.Height, opts.Width),
	)

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = newProgressBar(opts.Progress, info.Frames)
		defer func() { _ = bar.Finish() }()
	}

	start := time.Now()
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return info, err
		}
		img, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return info, fmt.Errorf("decode frame %d: %w", count+1, err)
		}
		frame, err := renderer.Render(img)
		if err != nil {
			return info, fmt.Errorf("render frame %d: %w", count+1, err)
		}
		if err := fn(frame); err != nil {
			return info, err
		}
		count++
		if bar != nil {
			_ = bar.Add(1)
		}
		if count%opts.ProgressEvery == 0 {
			logger.Info(progressMessage(count, info.Frames))
		}
	}
	logger.Debug("decode finished", "frames", count, "elapsed", time.Since(start).Round(time.Millisecond))
	return info, nil
}

func progressMessage(done, total int) string {
	if total > 0 {
		return fmt.Sprintf("Processed %d/%d frames", done, total)
	}
	return fmt.Sprintf("Processed %d frames", done)
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	n := int64(total)
	if n <= 0 {
		n = -1
	}
	return progressbar.NewOptions64(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Rendering frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// Source renders frames from a live decoder on demand, for direct playback.
type Source struct {
	dec      video.Decoder
	renderer *ascii.Renderer
}

// OpenSource opens opts.Input for pull-based rendering. The caller must Close
// the returned source.
func OpenSource(ctx context.Context, opts Options) (*Source, video.Info, error) {
	opts = opts.withDefaults()
	renderer, err := opts.renderer()
	if err != nil {
		return nil, video.Info{}, err
	}
	dec, err := opts.Open(ctx, opts.Input, opts.Backend)
	if err != nil {
		return nil, video.Info{}, err
	}
	return &Source{dec: dec, renderer: renderer}, dec.Info(), nil
}

// Next decodes and renders one frame, returning io.EOF at the end of the video.
func (s *Source) Next() (string, error) {
	img, err := s.dec.Next()
	if err != nil {
		return "", err
	}
	return s.renderer.Render(img)
}

// Close releases the decoder.
func (s *Source) Close() error {
	return s.dec.Close()
}
