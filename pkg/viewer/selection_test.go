package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maxar-Corp/wff-tools/pkg/render"
)

func TestNewSelectionPushesSentinel(t *testing.T) {
	uniforms := newRecordingUniforms()

	s := NewSelection(uniforms, testSentinel)

	assert.False(t, s.Selected().Valid())
	assert.Equal(t, []float64{testSentinel}, uniforms.writes)
}

func TestSelectionPushesOncePerChange(t *testing.T) {
	uniforms := newRecordingUniforms()
	s := NewSelection(uniforms, testSentinel)

	s.ClickFeature(5)
	s.ClickFeature(5) // idempotent
	s.ClickFeature(8) // replace
	s.ClickEmpty()
	s.ClickEmpty() // already empty

	assert.Equal(t, []float64{testSentinel, 5, 8, testSentinel}, uniforms.writes)
}

func TestSelectionZeroIsAValidFeature(t *testing.T) {
	uniforms := newRecordingUniforms()
	s := NewSelection(uniforms, testSentinel)

	s.ClickFeature(0)

	id, ok := s.Selected().Get()
	require.True(t, ok)
	assert.Equal(t, 0, id)
	assert.Equal(t, float64(0), uniforms.values[render.UniformSelectedFeature])
}

func TestClearMatchesClickEmpty(t *testing.T) {
	uniforms := newRecordingUniforms()
	s := NewSelection(uniforms, testSentinel)

	s.ClickFeature(2)
	s.Clear()

	assert.False(t, s.Selected().Valid())
	assert.Equal(t, float64(testSentinel), uniforms.values[render.UniformSelectedFeature])
}
