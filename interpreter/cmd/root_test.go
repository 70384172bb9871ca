package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/zachspang/asciimovie/internal/video"
)

const clearSeq = "\033[2J\033[H"

// noWait replaces the real delays and records the requested durations.
func noWait(t *testing.T) *[]time.Duration {
	t.Helper()
	var calls []time.Duration
	prevSleep, prevDelay := sleep, startDelay
	sleep = func(ctx context.Context, d time.Duration) error {
		calls = append(calls, d)
		return ctx.Err()
	}
	startDelay = 2 * time.Second
	t.Cleanup(func() { sleep, startDelay = prevSleep, prevDelay })
	return &calls
}

func execute(t *testing.T, ctx context.Context, args ...string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	return out.String()
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movie.obj")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}

func TestPlayDocument(t *testing.T) {
	g := NewWithT(t)
	calls := noWait(t)

	path := writeDoc(t, `{"fps": 4, "width": 2, "height": 1, "frames": ["ab", "cd"]}`)
	out := execute(t, context.Background(), path, "--clear", "ansi")

	g.Expect(out).To(Equal("Starting playback... Press Ctrl+C to stop.\n" +
		clearSeq + "ab\n" +
		clearSeq + "cd\n" +
		clearSeq))
	g.Expect(*calls).To(Equal([]time.Duration{2 * time.Second, 250 * time.Millisecond, 250 * time.Millisecond}))
}

func TestPlayDocumentDefaultsFPS(t *testing.T) {
	g := NewWithT(t)
	calls := noWait(t)

	path := writeDoc(t, `{"frames": ["x"]}`)
	out := execute(t, context.Background(), path, "--clear", "ansi")

	g.Expect(out).To(HavePrefix("Warning: No valid 'fps' data found in '" + path + "'. Defaulting to 24.\n"))
	g.Expect((*calls)[1]).To(BeNumerically("~", time.Second/24, time.Microsecond))
}

func TestPlayStoppedByCancel(t *testing.T) {
	g := NewWithT(t)
	noWait(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	prev := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		if d < time.Second {
			cancel()
		}
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = prev })

	path := writeDoc(t, `{"fps": 10, "frames": ["one", "two", "three"]}`)
	out := execute(t, ctx, path, "--clear", "ansi")

	g.Expect(out).To(ContainSubstring("one\n"))
	g.Expect(out).NotTo(ContainSubstring("two"))
	g.Expect(out).To(HaveSuffix("\nPlayback stopped.\n" + clearSeq))
	g.Expect(strings.Count(out, clearSeq)).To(Equal(2))
}

func TestValidationErrorsSkipPlayback(t *testing.T) {
	cases := map[string]struct {
		path func(t *testing.T) string
		want string
	}{
		"missing file": {
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.obj") },
			want: "Error: file not found at '",
		},
		"malformed": {
			path: func(t *testing.T) string { return writeDoc(t, `{"frames": [`) },
			want: "is not a valid JSON file",
		},
		"bad frames": {
			path: func(t *testing.T) string { return writeDoc(t, `{"fps": 24, "frames": []}`) },
			want: "Error: no valid 'frames' data found in '",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			g := NewWithT(t)
			calls := noWait(t)

			out := execute(t, context.Background(), tc.path(t), "--clear", "ansi")
			g.Expect(out).To(ContainSubstring(tc.want))
			g.Expect(out).NotTo(ContainSubstring("Starting playback"))
			g.Expect(*calls).To(BeEmpty())
		})
	}
}

func TestInfoTable(t *testing.T) {
	g := NewWithT(t)
	calls := noWait(t)

	path := writeDoc(t, `{"fps": 2, "width": 3, "height": 1, "charset": "short", "frames": ["a", "b", "c"]}`)
	out := execute(t, context.Background(), path, "--info")

	g.Expect(out).To(ContainSubstring("Frames"))
	g.Expect(out).To(MatchRegexp(`Duration\s+│\s+1\.5s`))
	g.Expect(out).To(MatchRegexp(`Charset\s+│\s+short`))
	g.Expect(out).NotTo(ContainSubstring("Starting playback"))
	g.Expect(*calls).To(BeEmpty())
}

type solidDecoder struct {
	left int
}

func (d *solidDecoder) Info() video.Info {
	return video.Info{Width: 8, Height: 8, FPS: 5, Frames: 2}
}

func (d *solidDecoder) Next() (image.Image, error) {
	if d.left == 0 {
		return nil, io.EOF
	}
	d.left--
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, color.RGBA{A: 0xff})
		}
	}
	return img, nil
}

func (d *solidDecoder) Close() error { return nil }

func TestPlayVideoDirectly(t *testing.T) {
	g := NewWithT(t)
	calls := noWait(t)

	dec := &solidDecoder{left: 2}
	prev := openVideo
	openVideo = func(ctx context.Context, path, backend string) (video.Decoder, error) { return dec, nil }
	t.Cleanup(func() { openVideo = prev })

	out := execute(t, context.Background(), "clip.MP4", "--clear", "ansi", "--width", "4", "--filter", "nearest")

	g.Expect(out).To(HavePrefix("Playing video: clip.MP4 fps=5 total_frames=2 width=4\n"))
	// 8x8 at 4 columns is 2 rows; the dark top-left block fills the first cell.
	g.Expect(out).To(ContainSubstring(clearSeq + " @@@\n@@@@\n"))
	g.Expect(out).To(HaveSuffix(clearSeq))
	g.Expect(*calls).To(HaveLen(3))
	g.Expect((*calls)[1]).To(Equal(200 * time.Millisecond))
}
