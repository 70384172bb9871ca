package video

import (
	"fmt"
	"image"
	"io"

	vidio "github.com/AlexEidt/Vidio"
)

type vidioDecoder struct {
	video  *vidio.Video
	frame  *image.RGBA
	info   Info
	closed bool
}

func openVidio(path string) (*vidioDecoder, error) {
	v, err := vidio.NewVideo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	frame := image.NewRGBA(image.Rect(0, 0, v.Width(), v.Height()))
	if err := v.SetFrameBuffer(frame.Pix); err != nil {
		v.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	return &vidioDecoder{
		video: v,
		frame: frame,
		info: Info{
			Width:  v.Width(),
			Height: v.Height(),
			FPS:    v.FPS(),
			Frames: v.Frames(),
			Codec:  v.Codec(),
		},
	}, nil
}

func (d *vidioDecoder) Info() Info { return d.info }

// Next copies the shared frame buffer so callers may keep the image.
func (d *vidioDecoder) Next() (image.Image, error) {
	if d.closed || !d.video.Read() {
		return nil, io.EOF
	}
	img := image.NewRGBA(d.frame.Rect)
	copy(img.Pix, d.frame.Pix)
	return img, nil
}

func (d *vidioDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.video.Close()
	return nil
}
