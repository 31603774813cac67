// Package viewer implements the feature interaction core of the tileset
// viewer: pointer dispatch with picking, the hover attribute overlay, the
// single-feature selection state machine, display-mode switching and the
// camera pose serializer.
//
// The package is renderer-agnostic: every component talks to a narrow
// interface (Picker, UniformSetter, MaterialPipeline, CameraRig,
// OverlaySurface) implemented by the render layer and substitutable with
// test doubles. All methods are intended for a single event-driven
// goroutine; no internal locking is performed.
package viewer

import (
	"github.com/Maxar-Corp/wff-tools/pkg/math3d"
	"github.com/Maxar-Corp/wff-tools/pkg/render"
)

// Feature identifies a pickable surface fragment and exposes its
// attribute bag. Instances are only valid for the duration of the pick
// query that produced them; record the integer ID to remember a feature.
type Feature interface {
	// ID is the feature's non-negative integer identity.
	ID() int
	// PropertyNames returns the attribute names in their native order.
	PropertyNames() []string
	// Property returns the value of a named attribute.
	Property(name string) string
}

// FeatureID is a tagged optional feature identity. The zero value means
// "no feature". The numeric GPU sentinel appears only at the uniform
// boundary, never here.
type FeatureID struct {
	id    int
	valid bool
}

// SomeFeature wraps a concrete feature ID.
func SomeFeature(id int) FeatureID {
	return FeatureID{id: id, valid: true}
}

// NoFeatureID is the empty FeatureID.
var NoFeatureID = FeatureID{}

// Get returns the ID and whether one is present.
func (f FeatureID) Get() (int, bool) {
	return f.id, f.valid
}

// Valid reports whether a feature is present.
func (f FeatureID) Valid() bool {
	return f.valid
}

// Picker performs a synchronous picking query against the scene.
type Picker interface {
	// Pick returns the feature under the given screen coordinate, or
	// false when nothing pickable is there (including pick failures,
	// which are indistinguishable from empty space by design).
	Pick(x, y int) (Feature, bool)
}

// UniformSetter writes named shading uniforms, used for the selection
// highlight.
type UniformSetter interface {
	SetUniform(name string, value float64)
}

// MaterialPipeline is the style/shader/blend surface owned by the display
// mode controller.
type MaterialPipeline interface {
	SetStyle(style render.StyleFunc)
	SetShader(shader render.FragmentShader)
	SetBlend(mode render.BlendMode, amount float64)
}

// CameraRig reads and writes the live camera pose.
type CameraRig interface {
	// Pose returns the camera position and orientation vectors.
	Pose() (position, direction, up math3d.Vec3)
	// SetPose applies a pose; position and orientation together.
	SetPose(position, direction, up math3d.Vec3)
}

// OverlaySurface renders the hover label. Coordinates are pixels with a
// bottom-left anchor: left is the label's left edge, bottom its bottom
// edge measured from the bottom of the viewport.
type OverlaySurface interface {
	ShowLabel(left, bottom int, lines []string)
	HideLabel()
}
