package viewer

import (
	"fmt"
	"strings"

	"github.com/Maxar-Corp/wff-tools/pkg/render"
)

// DisplayMode selects how tile features are shaded.
type DisplayMode int

const (
	// ModeRaw shows the tile's own textures and vertex colors.
	ModeRaw DisplayMode = iota
	// ModeClassification colors each feature by its class.
	ModeClassification
	// ModeLandCover colors each feature by land cover, with pure white
	// remapped to a neutral gray.
	ModeLandCover
)

func (m DisplayMode) String() string {
	switch m {
	case ModeRaw:
		return "raw"
	case ModeClassification:
		return "classification"
	case ModeLandCover:
		return "landcover"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseDisplayMode parses a mode name as written in config files.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw", "":
		return ModeRaw, nil
	case "classification":
		return ModeClassification, nil
	case "landcover", "land_cover", "land-cover":
		return ModeLandCover, nil
	}
	return ModeRaw, fmt.Errorf("unknown display mode %q", s)
}

// ModeConfig is the material triple a display mode layers on top of the
// neutral baseline. Nil entries leave the baseline in place.
type ModeConfig struct {
	Style       render.StyleFunc
	Shader      render.FragmentShader
	Blend       render.BlendMode
	BlendAmount float64
}

// DefaultModeConfigs builds the standard mode table from two per-feature
// color sources. A nil source leaves that mode on the raw baseline, so a
// tileset without classification data still switches modes harmlessly.
func DefaultModeConfigs(classification, landCover render.StyleFunc) map[DisplayMode]ModeConfig {
	configs := map[DisplayMode]ModeConfig{
		ModeRaw: {Blend: render.BlendHighlight, BlendAmount: 1},
	}
	if classification != nil {
		configs[ModeClassification] = ModeConfig{
			Style:       classification,
			Blend:       render.BlendReplace,
			BlendAmount: 1,
		}
	} else {
		configs[ModeClassification] = configs[ModeRaw]
	}
	if landCover != nil {
		configs[ModeLandCover] = ModeConfig{
			Style:       grayOutWhite(landCover),
			Blend:       render.BlendReplace,
			BlendAmount: 1,
		}
	} else {
		configs[ModeLandCover] = configs[ModeRaw]
	}
	return configs
}

// grayOutWhite remaps pure white to a neutral gray so unclassified land
// cover does not wash out against the background.
func grayOutWhite(style render.StyleFunc) render.StyleFunc {
	return func(featureID uint32) (render.Color, bool) {
		c, ok := style(featureID)
		if !ok {
			return c, false
		}
		if c.R == 255 && c.G == 255 && c.B == 255 {
			return render.ColorGray, true
		}
		return c, true
	}
}

// ModeController owns the material pipeline's style, shader and blend
// state. Every switch resets the pipeline to the neutral baseline before
// layering the target mode's triple, so modes never inherit each other's
// leftovers. The controller never touches shading uniforms; the selection
// highlight survives any mode change.
type ModeController struct {
	pipeline MaterialPipeline
	configs  map[DisplayMode]ModeConfig
	active   DisplayMode
}

// NewModeController creates a controller and applies the initial mode.
func NewModeController(pipeline MaterialPipeline, configs map[DisplayMode]ModeConfig, initial DisplayMode) *ModeController {
	c := &ModeController{
		pipeline: pipeline,
		configs:  configs,
	}
	c.Apply(initial)
	return c
}

// Apply switches to the given mode. Unknown modes are ignored.
// Re-applying the active mode performs the same reset-and-layer, which
// is observationally idempotent.
func (c *ModeController) Apply(mode DisplayMode) {
	cfg, ok := c.configs[mode]
	if !ok {
		return
	}

	// Reset to the neutral baseline first
	c.pipeline.SetStyle(nil)
	c.pipeline.SetShader(nil)
	c.pipeline.SetBlend(render.BlendHighlight, 1)

	if cfg.Style != nil {
		c.pipeline.SetStyle(cfg.Style)
	}
	if cfg.Shader != nil {
		c.pipeline.SetShader(cfg.Shader)
	}
	if cfg.Style != nil || cfg.Shader != nil {
		c.pipeline.SetBlend(cfg.Blend, cfg.BlendAmount)
	}
	c.active = mode
}

// Active returns the mode currently applied.
func (c *ModeController) Active() DisplayMode {
	return c.active
}

// Cycle advances to the next mode in the fixed raw, classification,
// land cover order.
func (c *ModeController) Cycle() {
	c.Apply((c.active + 1) % 3)
}
