package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlayAnchorsBottomLeftAtPointer(t *testing.T) {
	surface := &recordingSurface{}
	h := NewHoverOverlay(surface, 100)

	h.Show(fakeFeature{id: 1, names: []string{"a"}, props: map[string]string{"a": "x"}}, 10, 30)

	left, bottom := h.Anchor()
	assert.Equal(t, 10, left)
	assert.Equal(t, 70, bottom, "bottom is measured up from the viewport's bottom edge")
}

func TestOverlayListsEveryPropertyInNativeOrder(t *testing.T) {
	surface := &recordingSurface{}
	h := NewHoverOverlay(surface, 100)

	h.Show(fakeFeature{
		id:    1,
		names: []string{"zone", "name", "area"},
		props: map[string]string{"zone": "R2", "name": "depot", "area": ""},
	}, 0, 0)

	// Order follows the feature, not lexicographic; empty values keep
	// their line
	assert.Equal(t, []string{"zone: R2", "name: depot", "area: "}, surface.lines)
}

func TestOverlayWithNoPropertiesStillShows(t *testing.T) {
	surface := &recordingSurface{}
	h := NewHoverOverlay(surface, 100)

	h.Show(fakeFeature{id: 1}, 5, 5)

	assert.True(t, h.Visible())
	assert.Empty(t, surface.lines)
}

func TestHideClearsContent(t *testing.T) {
	surface := &recordingSurface{}
	h := NewHoverOverlay(surface, 100)

	h.Show(fakeFeature{id: 1, names: []string{"a"}, props: map[string]string{"a": "x"}}, 5, 5)
	require.True(t, h.Visible())

	h.Hide()

	assert.False(t, h.Visible())
	assert.Nil(t, h.Lines())
	assert.False(t, h.Hovered().Valid())
	assert.Equal(t, 1, surface.hideCalls)

	// Hiding again does not hit the surface a second time
	h.Hide()
	assert.Equal(t, 1, surface.hideCalls)
}

func TestViewportResizeMovesAnchor(t *testing.T) {
	surface := &recordingSurface{}
	h := NewHoverOverlay(surface, 100)

	h.SetViewportHeight(50)
	h.Show(fakeFeature{id: 1}, 10, 30)

	_, bottom := h.Anchor()
	assert.Equal(t, 20, bottom)
}
