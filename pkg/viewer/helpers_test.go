package viewer

import (
	"github.com/Maxar-Corp/wff-tools/pkg/math3d"
	"github.com/Maxar-Corp/wff-tools/pkg/render"
)

// fakeFeature is a Feature with a fixed property bag.
type fakeFeature struct {
	id    int
	names []string
	props map[string]string
}

func (f fakeFeature) ID() int                     { return f.id }
func (f fakeFeature) PropertyNames() []string     { return f.names }
func (f fakeFeature) Property(name string) string { return f.props[name] }

// gridPicker returns a feature only at registered coordinates.
type gridPicker struct {
	features map[[2]int]Feature
}

func newGridPicker() *gridPicker {
	return &gridPicker{features: make(map[[2]int]Feature)}
}

func (p *gridPicker) put(x, y int, f Feature) {
	p.features[[2]int{x, y}] = f
}

func (p *gridPicker) Pick(x, y int) (Feature, bool) {
	f, ok := p.features[[2]int{x, y}]
	return f, ok
}

// recordingSurface records overlay draw requests.
type recordingSurface struct {
	shown        bool
	left, bottom int
	lines        []string
	showCalls    int
	hideCalls    int
}

func (s *recordingSurface) ShowLabel(left, bottom int, lines []string) {
	s.shown = true
	s.left = left
	s.bottom = bottom
	s.lines = lines
	s.showCalls++
}

func (s *recordingSurface) HideLabel() {
	s.shown = false
	s.lines = nil
	s.hideCalls++
}

// recordingUniforms records every uniform write in order.
type recordingUniforms struct {
	values map[string]float64
	writes []float64
}

func newRecordingUniforms() *recordingUniforms {
	return &recordingUniforms{values: make(map[string]float64)}
}

func (u *recordingUniforms) SetUniform(name string, value float64) {
	u.values[name] = value
	if name == render.UniformSelectedFeature {
		u.writes = append(u.writes, value)
	}
}

// recordingPipeline records the material state the mode controller sets.
type recordingPipeline struct {
	style  render.StyleFunc
	shader render.FragmentShader
	blend  render.BlendMode
	amount float64
}

func (p *recordingPipeline) SetStyle(style render.StyleFunc)    { p.style = style }
func (p *recordingPipeline) SetShader(sh render.FragmentShader) { p.shader = sh }
func (p *recordingPipeline) SetBlend(mode render.BlendMode, amount float64) {
	p.blend = mode
	p.amount = amount
}

// fakeRig is a CameraRig holding a pose in plain fields.
type fakeRig struct {
	pos, dir, up math3d.Vec3
	setCalls     int
}

func (r *fakeRig) Pose() (math3d.Vec3, math3d.Vec3, math3d.Vec3) {
	return r.pos, r.dir, r.up
}

func (r *fakeRig) SetPose(pos, dir, up math3d.Vec3) {
	r.pos, r.dir, r.up = pos, dir, up
	r.setCalls++
}
