package ascii

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// CellHeightFactor corrects for terminal cells being about twice as tall as
// they are wide.
const CellHeightFactor = 2

// DefaultColumns is the output width used when none is requested.
const DefaultColumns = 120

const resetColor = "\x1b[0m"

var (
	ErrInvalidWidth = errors.New("ascii width must be positive")
	ErrNoRows       = errors.New("frame produces no ascii rows")
)

// Rows returns the number of character rows for a srcW x srcH frame rendered
// at cols columns: floor(srcH / ((srcW / cols) * CellHeightFactor)).
func Rows(srcW, srcH, cols int) int {
	if srcW <= 0 || srcH <= 0 || cols <= 0 {
		return 0
	}
	cellHeight := float64(srcW) / float64(cols) * CellHeightFactor
	return int(float64(srcH) / cellHeight)
}

// Luma converts an 8-bit RGB triple to gray using BT.601 weights.
func Luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

// ToGray returns a single-channel copy of img.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < bounds.Dy(); y++ {
			off := rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			src := rgba.Pix[off : off+bounds.Dx()*4]
			dst := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()]
			for x := range dst {
				dst[x] = Luma(src[x*4], src[x*4+1], src[x*4+2])
			}
		}
		return gray
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(img.At(x, y))
			gray.Pix[(y-bounds.Min.Y)*gray.Stride+(x-bounds.Min.X)] = Luma(r, g, b)
		}
	}
	return gray
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

type Option func(r *Renderer)

// WithRamp sets the character ramp.
func WithRamp(ramp Ramp) Option {
	return func(r *Renderer) {
		if len(ramp) > 0 {
			r.ramp = ramp
		}
	}
}

// WithResampler sets the downscaling filter.
func WithResampler(rs Resampler) Option {
	return func(r *Renderer) {
		if rs != nil {
			r.resampler = rs
		}
	}
}

// WithAdjustments applies tone corrections before rendering.
func WithAdjustments(a Adjustments) Option {
	return func(r *Renderer) {
		r.adjust = a
	}
}

// WithColor prefixes every cell with a 24-bit foreground color escape.
func WithColor() Option {
	return func(r *Renderer) {
		r.color = true
	}
}

// Renderer turns decoded frames into ascii text blocks of a fixed width.
type Renderer struct {
	columns   int
	ramp      Ramp
	resampler Resampler
	adjust    Adjustments
	color     bool
}

func NewRenderer(columns int, opts ...Option) (*Renderer, error) {
	if columns <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, columns)
	}
	def, _ := Filter(DefaultFilter)
	r := Renderer{
		columns:   columns,
		ramp:      NewRamp(DefaultRamp),
		resampler: def,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return &r, nil
}

func (r *Renderer) Columns() int { return r.columns }

func (r *Renderer) Color() bool { return r.color }

// Render converts a single frame. Rows are joined with '\n' and the block has
// no trailing newline.
func (r *Renderer) Render(img image.Image) (string, error) {
	bounds := img.Bounds()
	rows := Rows(bounds.Dx(), bounds.Dy(), r.columns)
	if rows < 1 {
		return "", fmt.Errorf("%w: %dx%d source at %d columns", ErrNoRows, bounds.Dx(), bounds.Dy(), r.columns)
	}
	img = r.adjust.Apply(img)

	if r.color {
		return r.renderColor(r.resampler.Resample(img, r.columns, rows), rows), nil
	}

	small := r.resampler.Resample(ToGray(img), r.columns, rows)
	gray := ToGray(small)

	var sb strings.Builder
	sb.Grow((r.columns + 1) * rows)
	for y := 0; y < rows; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		line := gray.Pix[y*gray.Stride : y*gray.Stride+r.columns]
		for _, b := range line {
			sb.WriteRune(r.ramp.Char(b))
		}
	}
	return sb.String(), nil
}

func (r *Renderer) renderColor(small image.Image, rows int) string {
	origin := small.Bounds().Min
	var sb strings.Builder
	sb.Grow(r.columns * rows * 20)
	buf := make([]byte, 0, 24)
	for y := 0; y < rows; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < r.columns; x++ {
			red, green, blue := rgb8(small.At(origin.X+x, origin.Y+y))
			buf = append(buf[:0], "\x1b[38;2;"...)
			buf = strconv.AppendUint(buf, uint64(red), 10)
			buf = append(buf, ';')
			buf = strconv.AppendUint(buf, uint64(green), 10)
			buf = append(buf, ';')
			buf = strconv.AppendUint(buf, uint64(blue), 10)
			buf = append(buf, 'm')
			sb.Write(buf)
			sb.WriteRune(r.ramp.Char(Luma(red, green, blue)))
		}
		sb.WriteString(resetColor)
	}
	return sb.String()
}
