// Package render provides the software rendering substrate for the tileset
// viewer: camera, framebuffer, rasterizer and terminal output.
package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// NoFeature is the feature-ID plane value for pixels not covered by any
// pickable feature. It sits outside the valid feature-ID range of any
// loaded tile (IDs are table indices, bounded well below 2^32-1).
const NoFeature uint32 = 0xFFFFFFFF

// Framebuffer is a 2D array of pixels that can be rendered to the terminal.
// We use double vertical resolution by using half-block characters (▀▄).
//
// Alongside the color plane it carries a feature-ID plane written during
// rasterization; reading it back at a pixel is how screen-space picking
// works.
type Framebuffer struct {
	Width  int          // Width in "pixels" (same as terminal columns)
	Height int          // Height in "pixels" (2x terminal rows due to half-blocks)
	Pixels []color.RGBA // Row-major pixel data
	IDs    []uint32     // Row-major feature IDs (NoFeature where empty)
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
// Height should be 2x the desired terminal rows for half-block rendering.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
		IDs:    make([]uint32, width*height),
	}
	for i := range fb.IDs {
		fb.IDs[i] = NoFeature
	}
	return fb
}

// Clear fills the framebuffer with a solid color and resets the feature-ID
// plane.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
		fb.IDs[i] = NoFeature
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// SetFragment sets both the color and the feature ID at (x, y).
func (fb *Framebuffer) SetFragment(x, y int, c color.RGBA, featureID uint32) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
	fb.IDs[y*fb.Width+x] = featureID
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// FeatureAt returns the feature ID rendered at (x, y) and whether a feature
// covers that pixel. Out-of-bounds coordinates report no feature.
func (fb *Framebuffer) FeatureAt(x, y int) (uint32, bool) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return 0, false
	}
	id := fb.IDs[y*fb.Width+x]
	if id == NoFeature {
		return 0, false
	}
	return id, true
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, fb.ToImage())
}
