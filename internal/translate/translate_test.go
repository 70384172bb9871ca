package translate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/zachspang/asciimovie/internal/ascii"
	"github.com/zachspang/asciimovie/internal/logging"
	"github.com/zachspang/asciimovie/internal/movie"
	"github.com/zachspang/asciimovie/internal/video"
)

// fakeDecoder yields count solid frames of the given gray level.
type fakeDecoder struct {
	info    video.Info
	count   int
	level   uint8
	served  int
	failAt  int
	closes  int
	openErr error
}

func (d *fakeDecoder) Info() video.Info { return d.info }

func (d *fakeDecoder) Next() (image.Image, error) {
	if d.failAt > 0 && d.served+1 == d.failAt {
		return nil, errors.New("corrupt packet")
	}
	if d.served >= d.count {
		return nil, io.EOF
	}
	d.served++
	img := image.NewRGBA(image.Rect(0, 0, d.info.Width, d.info.Height))
	c := color.RGBA{R: d.level, G: d.level, B: d.level, A: 0xff}
	for y := 0; y < d.info.Height; y++ {
		for x := 0; x < d.info.Width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

func (d *fakeDecoder) Close() error {
	d.closes++
	return nil
}

func (d *fakeDecoder) opener() video.Opener {
	return func(ctx context.Context, path, backend string) (video.Decoder, error) {
		if d.openErr != nil {
			return nil, d.openErr
		}
		return d, nil
	}
}

func newFake(count int) *fakeDecoder {
	return &fakeDecoder{
		info:  video.Info{Width: 40, Height: 20, FPS: 25, Frames: count},
		count: count,
		level: 0xff,
	}
}

func TestRunWritesDocument(t *testing.T) {
	g := NewWithT(t)

	dec := newFake(3)
	out := filepath.Join(t.TempDir(), "clip.obj")
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &logs})
	g.Expect(err).NotTo(HaveOccurred())

	doc, err := Run(context.Background(), Options{
		Input:   "clip.mp4",
		Output:  out,
		Width:   10,
		Charset: "medium",
		Open:    dec.opener(),
		Logger:  logger,
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(dec.closes).To(Equal(1))

	// 40x20 at 10 columns: cell width 4, cell height 8, so 2 rows.
	g.Expect(doc.Frames).To(HaveLen(3))
	g.Expect(doc.Frames[0]).To(Equal("@@@@@@@@@@\n@@@@@@@@@@"))
	g.Expect(doc.Height).To(Equal(2))
	g.Expect(doc.Width).To(Equal(10))
	g.Expect(doc.FPS).To(Equal(25.0))

	loaded, warnings, err := movie.Load(out)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(warnings).To(BeEmpty())
	g.Expect(loaded.Frames).To(Equal(doc.Frames))
	g.Expect(loaded.Charset).To(Equal("medium"))

	g.Expect(logs.String()).To(ContainSubstring("Processing video: clip.mp4 fps=25 total_frames=3 width=10"))
	g.Expect(logs.String()).To(ContainSubstring("ASCII movie saved to " + out))
}

func TestRunLogsProgress(t *testing.T) {
	g := NewWithT(t)

	dec := newFake(250)
	dec.info.Frames = 0
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &logs})
	g.Expect(err).NotTo(HaveOccurred())

	_, err = Run(context.Background(), Options{
		Output: filepath.Join(t.TempDir(), "out.obj"),
		Width:  4,
		Open:   dec.opener(),
		Logger: logger,
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(strings.Count(logs.String(), "Processed ")).To(Equal(2))
	g.Expect(logs.String()).To(ContainSubstring("Processed 200 frames"))
}

func TestRunZeroFrames(t *testing.T) {
	g := NewWithT(t)

	out := filepath.Join(t.TempDir(), "empty.obj")
	doc, err := Run(context.Background(), Options{Output: out, Open: newFake(0).opener()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(doc.Height).To(BeZero())
	g.Expect(doc.Width).To(Equal(ascii.DefaultColumns))

	data, err := os.ReadFile(out)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(ContainSubstring(`"frames": []`))
}

func TestRunOmitsMissingFPS(t *testing.T) {
	g := NewWithT(t)

	dec := newFake(1)
	dec.info.FPS = 0
	out := filepath.Join(t.TempDir(), "a.obj")
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &logs})
	g.Expect(err).NotTo(HaveOccurred())
	doc, err := Run(context.Background(), Options{Output: out, Width: 4, Open: dec.opener(), Logger: logger})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(doc.FPS).To(BeZero())
	g.Expect(logs.String()).To(ContainSubstring("Warning: Video reports no frame rate."))

	data, err := os.ReadFile(out)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).NotTo(ContainSubstring(`"fps"`))

	loaded, warnings, err := movie.Load(out)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(warnings).To(HaveLen(1))
	g.Expect(loaded.FPS).To(Equal(movie.DefaultFPS))
}

func TestRunOpenFailureWritesNothing(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "out.obj")
	dec := newFake(1)
	dec.openErr = fmt.Errorf("%w: broken.mp4", video.ErrOpen)

	_, err := Run(context.Background(), Options{Input: "broken.mp4", Output: out, Open: dec.opener()})
	g.Expect(errors.Is(err, video.ErrOpen)).To(BeTrue())
	g.Expect(out).NotTo(BeAnExistingFile())
}

func TestRunMissingInput(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "out.obj")
	_, err := Run(context.Background(), Options{Input: filepath.Join(dir, "nope.mp4"), Output: out})
	g.Expect(errors.Is(err, video.ErrNotFound)).To(BeTrue())
	g.Expect(out).NotTo(BeAnExistingFile())
}

func TestRunDecodeErrorClosesOnceAndWritesNothing(t *testing.T) {
	g := NewWithT(t)

	out := filepath.Join(t.TempDir(), "out.obj")
	dec := newFake(5)
	dec.failAt = 3
	_, err := Run(context.Background(), Options{Output: out, Width: 4, Open: dec.opener()})
	g.Expect(err).To(MatchError(ContainSubstring("decode frame 3")))
	g.Expect(dec.closes).To(Equal(1))
	g.Expect(out).NotTo(BeAnExistingFile())
}

func TestRunCancelled(t *testing.T) {
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(t.TempDir(), "out.obj")
	_, err := Run(ctx, Options{Output: out, Width: 4, Open: newFake(5).opener()})
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(out).NotTo(BeAnExistingFile())
}

func TestStreamStopsOnCallbackError(t *testing.T) {
	g := NewWithT(t)

	dec := newFake(5)
	stop := errors.New("enough")
	seen := 0
	_, err := Stream(context.Background(), Options{Width: 4, Open: dec.opener()}, func(frame string) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	g.Expect(err).To(MatchError(stop))
	g.Expect(seen).To(Equal(2))
	g.Expect(dec.closes).To(Equal(1))
}

func TestStreamWithProgressBar(t *testing.T) {
	g := NewWithT(t)

	var bar bytes.Buffer
	info, err := Stream(context.Background(), Options{Width: 4, Progress: &bar, Open: newFake(3).opener()}, func(string) error { return nil })
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.Frames).To(Equal(3))
	g.Expect(bar.Len()).To(BeNumerically(">", 0))
}

func TestSourceRendersOnDemand(t *testing.T) {
	g := NewWithT(t)

	dec := newFake(2)
	dec.level = 0
	src, info, err := OpenSource(context.Background(), Options{Width: 4, Open: dec.opener()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.FPS).To(Equal(25.0))

	frame, err := src.Next()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(frame).To(Equal("    "))
	_, err = src.Next()
	g.Expect(err).NotTo(HaveOccurred())
	_, err = src.Next()
	g.Expect(err).To(MatchError(io.EOF))

	g.Expect(src.Close()).To(Succeed())
	g.Expect(dec.closes).To(Equal(1))
}

func TestProgressMessage(t *testing.T) {
	g := NewWithT(t)

	g.Expect(progressMessage(100, 1800)).To(Equal("Processed 100/1800 frames"))
	g.Expect(progressMessage(100, 0)).To(Equal("Processed 100 frames"))
}
