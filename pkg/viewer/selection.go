package viewer

import (
	"github.com/Maxar-Corp/wff-tools/pkg/render"
)

// Selection holds the single selected feature and mirrors it into the
// highlight uniform. At most one feature is selected; selecting another
// replaces it. The GPU sees either the selected ID or a sentinel chosen
// outside the valid feature range, pushed synchronously on every change
// so no rendered frame can show a stale highlight.
type Selection struct {
	uniforms UniformSetter
	sentinel int
	selected FeatureID
}

// NewSelection creates an empty selection and pushes the sentinel so the
// first frame renders without a highlight. The sentinel must not collide
// with any valid feature ID.
func NewSelection(uniforms UniformSetter, sentinel int) *Selection {
	s := &Selection{
		uniforms: uniforms,
		sentinel: sentinel,
	}
	s.push()
	return s
}

// ClickFeature selects the feature with the given ID, replacing any
// previous selection. Re-clicking the already selected feature is a
// no-op: the selection stays and no uniform write happens.
func (s *Selection) ClickFeature(id int) {
	next := SomeFeature(id)
	if s.selected == next {
		return
	}
	s.selected = next
	s.push()
}

// ClickEmpty clears the selection, as a click on empty space does.
// Clearing an already empty selection writes nothing.
func (s *Selection) ClickEmpty() {
	if !s.selected.Valid() {
		return
	}
	s.selected = NoFeatureID
	s.push()
}

// Clear drops the selection; same semantics as ClickEmpty.
func (s *Selection) Clear() {
	s.ClickEmpty()
}

// Selected returns the current selection.
func (s *Selection) Selected() FeatureID {
	return s.selected
}

// push writes the selection to the highlight uniform.
func (s *Selection) push() {
	id, ok := s.selected.Get()
	if !ok {
		id = s.sentinel
	}
	s.uniforms.SetUniform(render.UniformSelectedFeature, float64(id))
}
