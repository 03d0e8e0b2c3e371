package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/VincentPHAM98/SI3D/tracer"
)

type ImageMode uint8

// Supported debug image modes.
const (
	// Color each pixel by the id of the triangle it hit.
	HitIDImage ImageMode = iota

	// Shade each pixel by its normalized hit distance; near is bright.
	DepthImage
)

// Parse an image mode name ("id" or "depth").
func ParseImageMode(name string) (ImageMode, error) {
	switch name {
	case "id":
		return HitIDImage, nil
	case "depth":
		return DepthImage, nil
	}
	return 0, fmt.Errorf("renderer: unknown image mode %q", name)
}

// Convert the frame buffer into an image. Misses are black.
func FrameImage(fb *tracer.FrameBuffer, mode ImageMode) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(fb.W), int(fb.H)))

	minDepth, maxDepth := float32(math.MaxFloat32), float32(0)
	for i, id := range fb.HitIDs {
		if id < 0 {
			continue
		}
		if fb.Depth[i] < minDepth {
			minDepth = fb.Depth[i]
		}
		if fb.Depth[i] > maxDepth {
			maxDepth = fb.Depth[i]
		}
	}
	depthRange := maxDepth - minDepth
	if depthRange <= 0 {
		depthRange = 1
	}

	for i, id := range fb.HitIDs {
		x, y := i%int(fb.W), i/int(fb.W)
		if id < 0 {
			img.SetRGBA(x, y, color.RGBA{A: 255})
			continue
		}

		switch mode {
		case DepthImage:
			v := uint8(255 - 223*(fb.Depth[i]-minDepth)/depthRange)
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		default:
			img.SetRGBA(x, y, idColor(id))
		}
	}

	return img
}

// Encode the frame buffer as a PNG image.
func WritePNG(w io.Writer, fb *tracer.FrameBuffer, mode ImageMode) error {
	return png.Encode(w, FrameImage(fb, mode))
}

// A stable bright color for a triangle id.
func idColor(id int32) color.RGBA {
	h := uint32(id) * 2654435761
	return color.RGBA{
		R: uint8(h>>16)/2 + 96,
		G: uint8(h>>8)/2 + 96,
		B: uint8(h)/2 + 96,
		A: 255,
	}
}
