package viewer

import "fmt"

// HoverOverlay owns the attribute label that follows the pointer. It is
// anchored by its bottom-left corner at the pick location so the label
// grows upward from the cursor: left = x, bottom = viewportHeight - y,
// with y measured top-down as pointer events deliver it.
type HoverOverlay struct {
	surface        OverlaySurface
	viewportHeight int

	visible      bool
	hovered      FeatureID
	lines        []string
	left, bottom int
}

// NewHoverOverlay creates a hidden overlay for a viewport of the given
// pixel height.
func NewHoverOverlay(surface OverlaySurface, viewportHeight int) *HoverOverlay {
	return &HoverOverlay{
		surface:        surface,
		viewportHeight: viewportHeight,
	}
}

// SetViewportHeight updates the anchor math after a viewport resize.
func (h *HoverOverlay) SetViewportHeight(height int) {
	h.viewportHeight = height
}

// Show displays the feature's properties at pointer position (x, y).
// Every property is listed, one "name: value" line per property, in the
// feature's native order; empty values still get a line.
func (h *HoverOverlay) Show(f Feature, x, y int) {
	names := f.PropertyNames()
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", name, f.Property(name)))
	}

	h.visible = true
	h.hovered = SomeFeature(f.ID())
	h.lines = lines
	h.left = x
	h.bottom = h.viewportHeight - y
	h.surface.ShowLabel(h.left, h.bottom, h.lines)
}

// Hide removes the overlay and clears its content, so a later reveal
// cannot flash stale text.
func (h *HoverOverlay) Hide() {
	if !h.visible && h.lines == nil {
		return
	}
	h.visible = false
	h.hovered = NoFeatureID
	h.lines = nil
	h.surface.HideLabel()
}

// Visible reports whether the overlay is currently shown.
func (h *HoverOverlay) Visible() bool {
	return h.visible
}

// Hovered returns the feature currently under the pointer, if any.
func (h *HoverOverlay) Hovered() FeatureID {
	return h.hovered
}

// Lines returns the overlay's current content.
func (h *HoverOverlay) Lines() []string {
	return h.lines
}

// Anchor returns the bottom-left anchor of the overlay in viewport
// pixels, with bottom measured up from the viewport's bottom edge.
func (h *HoverOverlay) Anchor() (left, bottom int) {
	return h.left, h.bottom
}
