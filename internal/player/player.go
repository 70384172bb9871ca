// Package player renders ascii frames to a terminal at a fixed rate.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zachspang/asciimovie/internal/logging"
	"github.com/zachspang/asciimovie/internal/movie"
	"github.com/zachspang/asciimovie/internal/terminal"
)

// StartDelay is the grace period between the start banner and the first frame.
const StartDelay = 2 * time.Second

const (
	bannerStart   = "Starting playback... Press Ctrl+C to stop."
	bannerStopped = "\nPlayback stopped."
)

// FrameSource yields rendered frames in playback order and io.EOF at the end.
type FrameSource interface {
	Next() (string, error)
}

type sliceSource struct {
	frames []string
	pos    int
}

func (s *sliceSource) Next() (string, error) {
	if s.pos >= len(s.frames) {
		return "", io.EOF
	}
	frame := s.frames[s.pos]
	s.pos++
	return frame, nil
}

// Frames wraps an in-memory frame list.
func Frames(frames []string) FrameSource {
	return &sliceSource{frames: frames}
}

// SleepFunc blocks for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Player paces frames onto Out. The zero value of every field except Out has a
// usable default.
type Player struct {
	Out        io.Writer
	Display    terminal.Display
	Sleep      SleepFunc
	StartDelay time.Duration
	// HideCursor hides the cursor during playback when Display supports it.
	HideCursor bool
	Logger     *slog.Logger
}

// Result summarises a playback run.
type Result struct {
	Frames  int
	Stopped bool
}

// Play prints the start banner, waits StartDelay, then for each frame clears
// the display, prints the frame and sleeps 1/fps. Cancelling ctx stops the
// loop early. Once the banner is out, the display is cleared exactly once more
// on every return path.
func (p *Player) Play(ctx context.Context, src FrameSource, fps float64) (res Result, err error) {
	display := p.Display
	if display == nil {
		display = &terminal.ANSI{Writer: p.Out}
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if fps <= 0 {
		fps = movie.DefaultFPS
	}
	delay := movie.FrameDelay(fps)

	if _, err := fmt.Fprintln(p.Out, bannerStart); err != nil {
		return res, fmt.Errorf("write banner: %w", err)
	}

	defer func() {
		if cerr := display.Clear(); cerr != nil {
			logger.Warn("clear display failed", "error", cerr)
			if err == nil {
				err = fmt.Errorf("clear display: %w", cerr)
			}
		}
		logger.Debug("playback finished", "frames", res.Frames, "stopped", res.Stopped)
	}()

	if cd, ok := display.(terminal.CursorDisplay); ok && p.HideCursor {
		_ = cd.ShowCursor(false)
		defer func() { _ = cd.ShowCursor(true) }()
	}

	stop := func() (Result, error) {
		res.Stopped = true
		if _, err := fmt.Fprintln(p.Out, bannerStopped); err != nil {
			return res, fmt.Errorf("write banner: %w", err)
		}
		return res, nil
	}

	if err := sleep(ctx, p.StartDelay); err != nil {
		return stop()
	}

	logger.Debug("playback started", "fps", fps, "frame_delay", delay)
	for {
		if ctx.Err() != nil {
			return stop()
		}
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("next frame: %w", err)
		}
		if err := display.Clear(); err != nil {
			return res, fmt.Errorf("clear display: %w", err)
		}
		if _, err := io.WriteString(p.Out, frame+"\n"); err != nil {
			return res, fmt.Errorf("write frame %d: %w", res.Frames, err)
		}
		res.Frames++
		if err := sleep(ctx, delay); err != nil {
			return stop()
		}
	}
}
