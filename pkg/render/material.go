package render

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Uniform names understood by the fragment stage.
const (
	// UniformSelectedFeature holds the feature ID to highlight, as a float.
	// Set it to a value outside the loaded feature-ID range to highlight
	// nothing.
	UniformSelectedFeature = "u_selectedFeature"
)

// StyleFunc maps a feature ID to an override color. The second return
// reports whether the style applies to that feature; features without a
// style keep their base shading.
type StyleFunc func(featureID uint32) (Color, bool)

// Fragment is the input to a custom fragment shader.
type Fragment struct {
	Color     Color  // Color after style blending
	Base      Color  // Lit base color before styling
	FeatureID uint32 // Feature covering this fragment (NoFeature if none)
	Intensity float64
}

// FragmentShader transforms a shaded fragment. A nil shader leaves the
// fragment unchanged.
type FragmentShader func(frag Fragment) Color

// BlendMode selects how a style color combines with the base color.
type BlendMode int

const (
	// BlendHighlight multiplies the style color into the base color.
	BlendHighlight BlendMode = iota
	// BlendMix linearly interpolates between base and style color by the
	// blend amount.
	BlendMix
	// BlendReplace discards the base color entirely.
	BlendReplace
)

// Material holds the style/shader/blend triple applied during
// rasterization. The zero value is the neutral baseline: no style
// override, no custom shader, highlight blending at full amount.
type Material struct {
	Style       StyleFunc
	Shader      FragmentShader
	Blend       BlendMode
	BlendAmount float64 // 0..1, used by BlendMix
}

// NeutralMaterial returns the baseline material state.
func NeutralMaterial() Material {
	return Material{Blend: BlendHighlight, BlendAmount: 1}
}

// SetStyle sets or clears the per-feature style override.
func (r *Rasterizer) SetStyle(style StyleFunc) {
	r.material.Style = style
}

// SetShader sets or clears the custom fragment shader.
func (r *Rasterizer) SetShader(shader FragmentShader) {
	r.material.Shader = shader
}

// SetBlend sets the color blend strategy and amount (clamped to 0..1).
func (r *Rasterizer) SetBlend(mode BlendMode, amount float64) {
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}
	r.material.Blend = mode
	r.material.BlendAmount = amount
}

// ResetMaterial restores the neutral baseline material.
func (r *Rasterizer) ResetMaterial() {
	r.material = NeutralMaterial()
}

// SetUniform sets a named uniform read by the fragment stage.
func (r *Rasterizer) SetUniform(name string, value float64) {
	r.uniforms[name] = value
}

// Uniform returns the value of a named uniform (0 if unset).
func (r *Rasterizer) Uniform(name string) float64 {
	return r.uniforms[name]
}

// selectionTint is blended over fragments of the highlighted feature.
var selectionTint = colorful.Color{R: 1, G: 0.85, B: 0.1}

// shadeFragment runs the material pipeline for one fragment: style blend,
// custom shader, then the selection highlight. The highlight is applied
// last so it stays visible under every display mode.
func (r *Rasterizer) shadeFragment(base Color, featureID uint32, intensity float64) Color {
	c := base
	if r.material.Style != nil && featureID != NoFeature {
		if styleColor, ok := r.material.Style(featureID); ok {
			c = blendColors(c, styleColor, r.material.Blend, r.material.BlendAmount)
		}
	}
	if r.material.Shader != nil {
		c = r.material.Shader(Fragment{
			Color:     c,
			Base:      base,
			FeatureID: featureID,
			Intensity: intensity,
		})
	}
	if featureID != NoFeature {
		if sel, ok := r.uniforms[UniformSelectedFeature]; ok && sel == float64(featureID) {
			c = mixColor(c, toRGBA(selectionTint), 0.5)
		}
	}
	return c
}

// blendColors combines the base and style colors under the given mode.
func blendColors(base, style Color, mode BlendMode, amount float64) Color {
	switch mode {
	case BlendReplace:
		return style
	case BlendMix:
		return mixColor(base, style, amount)
	default: // BlendHighlight
		return ModulateColor(base, style)
	}
}

// mixColor interpolates between two colors in RGB space.
func mixColor(a, b Color, t float64) Color {
	ca := toColorful(a)
	cb := toColorful(b)
	return toRGBA(ca.BlendRgb(cb, t))
}

func toColorful(c Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func toRGBA(c colorful.Color) Color {
	cl := c.Clamped()
	return color.RGBA{
		R: uint8(cl.R*255 + 0.5),
		G: uint8(cl.G*255 + 0.5),
		B: uint8(cl.B*255 + 0.5),
		A: 255,
	}
}
