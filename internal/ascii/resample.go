package ascii

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// DefaultFilter is the resampling filter used when none is configured. It is
// the linear interpolation most video tooling uses for downscaling.
const DefaultFilter = "bilinear"

// Resampler scales an image to exactly width x height pixels.
type Resampler interface {
	Resample(src image.Image, width, height int) image.Image
}

// scalerResampler draws through one of the x/image/draw kernels. The
// destination keeps the source's model so gray frames stay single-channel.
type scalerResampler struct {
	scaler draw.Scaler
}

func (s scalerResampler) Resample(src image.Image, width, height int) image.Image {
	rect := image.Rect(0, 0, width, height)
	var dst draw.Image
	switch src.(type) {
	case *image.Gray:
		dst = image.NewGray(rect)
	default:
		dst = image.NewRGBA(rect)
	}
	s.scaler.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
	return dst
}

type nfntResampler struct {
	interp resize.InterpolationFunction
}

func (n nfntResampler) Resample(src image.Image, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), src, n.interp)
}

var filters = map[string]Resampler{
	"nearest":         scalerResampler{draw.NearestNeighbor},
	"approx-bilinear": scalerResampler{draw.ApproxBiLinear},
	"bilinear":        scalerResampler{draw.BiLinear},
	"catmull-rom":     scalerResampler{draw.CatmullRom},
	"bicubic":         nfntResampler{resize.Bicubic},
	"mitchell":        nfntResampler{resize.MitchellNetravali},
	"lanczos":         nfntResampler{resize.Lanczos3},
}

// Filter looks up a resampler by name. An empty name selects DefaultFilter.
func Filter(name string) (Resampler, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultFilter
	}
	r, ok := filters[key]
	if !ok {
		return nil, fmt.Errorf("unknown resampling filter %q (want one of %s)", name, strings.Join(FilterNames(), ", "))
	}
	return r, nil
}

// FilterNames lists the supported filter names in sorted order.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
