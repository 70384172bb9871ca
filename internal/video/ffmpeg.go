package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type probeInfo struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		Frames       string `json:"nb_frames"`
		Duration     string `json:"duration"`
		Framerate    string `json:"r_frame_rate"`
		AvgFramerate string `json:"avg_frame_rate"`
		Tags         struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideData []struct {
			Rotation *float64 `json:"rotation"`
		} `json:"side_data_list"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// parseProbe picks the first video stream out of ffprobe's JSON. When the
// container has no nb_frames the count is estimated from rate and duration.
// Width and Height describe the frames ffmpeg emits, which are auto-rotated,
// so a quarter-turn rotation swaps the coded dimensions.
func parseProbe(data string) (Info, error) {
	var probe probeInfo
	if err := json.Unmarshal([]byte(data), &probe); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	for _, s := range probe.Streams {
		if s.CodecType != "" && s.CodecType != "video" {
			continue
		}
		if s.Width <= 0 || s.Height <= 0 {
			continue
		}
		info := Info{
			Width:  s.Width,
			Height: s.Height,
			Codec:  s.CodecName,
			FPS:    parseRate(s.AvgFramerate),
		}
		if info.FPS <= 0 {
			info.FPS = parseRate(s.Framerate)
		}
		rotation := 0.0
		for _, sd := range s.SideData {
			if sd.Rotation != nil {
				rotation = *sd.Rotation
				break
			}
		}
		if rotation == 0 {
			if r, err := strconv.ParseFloat(strings.TrimSpace(s.Tags.Rotate), 64); err == nil {
				rotation = r
			}
		}
		if quarterTurn(rotation) {
			info.Width, info.Height = info.Height, info.Width
		}
		if frames, err := strconv.Atoi(strings.TrimSpace(s.Frames)); err == nil {
			info.Frames = frames
		} else {
			duration := s.Duration
			if duration == "" {
				duration = probe.Format.Duration
			}
			if d, err := strconv.ParseFloat(strings.TrimSpace(duration), 64); err == nil && info.FPS > 0 {
				info.Frames = int(info.FPS * d)
			}
		}
		return info, nil
	}
	return Info{}, errors.New("no video stream found")
}

// quarterTurn reports whether a rotation in degrees is an odd multiple of 90.
func quarterTurn(deg float64) bool {
	r := int(math.Round(deg)) % 360
	if r < 0 {
		r += 360
	}
	return r == 90 || r == 270
}

// parseRate converts an ffprobe rational such as "30000/1001" to a float.
// Malformed or zero-denominator rates return 0.
func parseRate(rate string) float64 {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return 0
	}
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

type ffmpegDecoder struct {
	info   Info
	cmd    *exec.Cmd
	out    io.ReadCloser
	stderr bytes.Buffer
	buf    []byte
	waited bool
	closed bool
}

func openFFmpeg(ctx context.Context, path string) (*ffmpegDecoder, error) {
	data, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	info, err := parseProbe(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}

	d := &ffmpegDecoder{
		info: info,
		buf:  make([]byte, info.Width*info.Height*3),
	}
	stream := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{"loglevel": "error", "format": "rawvideo", "pix_fmt": "rgb24"}).
		WithErrorOutput(&d.stderr).
		Silent(true)
	d.cmd = stream.Compile()

	d.out, err = d.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: start ffmpeg: %v", ErrOpen, path, err)
	}
	return d, nil
}

func (d *ffmpegDecoder) Info() Info { return d.info }

func (d *ffmpegDecoder) Next() (image.Image, error) {
	if d.closed {
		return nil, io.EOF
	}
	if _, err := io.ReadFull(d.out, d.buf); err != nil {
		if errors.Is(err, io.EOF) {
			if werr := d.wait(); werr != nil {
				return nil, werr
			}
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, d.info.Width, d.info.Height))
	for i, j := 0, 0; i < len(d.buf); i, j = i+3, j+4 {
		img.Pix[j] = d.buf[i]
		img.Pix[j+1] = d.buf[i+1]
		img.Pix[j+2] = d.buf[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

func (d *ffmpegDecoder) wait() error {
	if d.waited {
		return nil
	}
	d.waited = true
	if err := d.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(d.stderr.String()))
	}
	return nil
}

func (d *ffmpegDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.waited {
		return nil
	}
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	d.waited = true
	_ = d.cmd.Wait()
	return nil
}
