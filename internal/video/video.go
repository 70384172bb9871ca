// Package video is the boundary to the external decoders that turn a video
// file into a sequence of color frames.
//
// Two backends are provided: "ffmpeg" (probe with ffprobe, then stream raw
// rgb24 frames from an ffmpeg process) and "vidio" (github.com/AlexEidt/Vidio).
// Both yield frames as *image.RGBA in decode order.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"strings"
)

const (
	BackendFFmpeg = "ffmpeg"
	BackendVidio  = "vidio"
)

var (
	// ErrNotFound reports that the source path does not exist.
	ErrNotFound = errors.New("video file not found")
	// ErrOpen reports that the source exists but cannot be opened as video.
	ErrOpen = errors.New("could not open video file")
)

// Info is the stream metadata declared by the container.
type Info struct {
	Width  int
	Height int
	FPS    float64
	// Frames is the declared frame count, 0 when the container does not say.
	Frames int
	Codec  string
}

// Decoder yields decoded frames one at a time.
type Decoder interface {
	Info() Info
	// Next returns the next frame, or io.EOF once the stream is exhausted.
	Next() (image.Image, error)
	// Close releases the decoder. Calling it more than once is a no-op.
	Close() error
}

// Opener is the signature of Open, so callers can substitute fakes.
type Opener func(ctx context.Context, path, backend string) (Decoder, error)

// Open checks that path exists and opens it with the named backend. An empty
// backend selects ffmpeg.
func Open(ctx context.Context, path, backend string) (Decoder, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	var (
		dec Decoder
		err error
	)
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFFmpeg:
		dec, err = openFFmpeg(ctx, path)
	case BackendVidio:
		dec, err = openVidio(path)
	default:
		return nil, fmt.Errorf("unknown decoder backend %q (want %s or %s)", backend, BackendFFmpeg, BackendVidio)
	}
	if err != nil {
		return nil, err
	}
	return dec, nil
}

// IsVideoPath reports whether path carries a container extension that the
// interpreter plays directly instead of loading as a document.
func IsVideoPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".mp4", ".avi", ".mkv", ".mov", ".webm"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
