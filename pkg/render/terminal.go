package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the internal framebuffer to terminal cells and draws them on
// the screen.
// The framebuffer height should be 2x the terminal height.
func (r *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	// Each terminal row represents 2 framebuffer rows
	// We use ▀ (upper half block) with fg=top color and bg=bottom color

	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col < r.Width; col++ {
			topColor := r.GetPixel(col, topY)
			botColor := r.GetPixel(col, botY)

			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(topColor),
					Bg: rgbaToColor(botColor),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// TerminalRenderer presents a framebuffer on a terminal. Each cell shows
// two framebuffer rows via the half block glyph, so the backing
// framebuffer is one pixel wide per column and two pixels tall per row.
type TerminalRenderer struct {
	term   *uv.Terminal
	width  int
	height int
}

// NewTerminalRenderer creates a renderer for a terminal of the given cell
// size.
func NewTerminalRenderer(term *uv.Terminal, width, height int) *TerminalRenderer {
	return &TerminalRenderer{term: term, width: width, height: height}
}

// FramebufferSize returns the pixel resolution backing the terminal.
func (t *TerminalRenderer) FramebufferSize() (width, height int) {
	return t.width, t.height * 2
}

// Render draws the framebuffer into the terminal's cell buffer.
func (t *TerminalRenderer) Render(fb *Framebuffer) {
	fb.Draw(t.term, uv.Rect(0, 0, t.width, t.height))
}

// Flush pushes the cell buffer to the terminal.
func (t *TerminalRenderer) Flush() error {
	return t.term.Display()
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors for convenience
var (
	ColorBlack  = color.RGBA{0, 0, 0, 255}
	ColorWhite  = color.RGBA{255, 255, 255, 255}
	ColorYellow = color.RGBA{255, 255, 0, 255}
	ColorGray   = color.RGBA{128, 128, 128, 255}
)

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

// RGBA creates a color from RGBA values.
func RGBA(r, g, b, a uint8) color.RGBA {
	return color.RGBA{r, g, b, a}
}
