// Package config loads viewer settings from a JSON config file with
// sensible defaults for every key.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ConfigFileName is the config file looked up in the config directory.
const ConfigFileName = "tsview.cfg.json"

// ViewerConfig holds the interaction and display defaults.
type ViewerConfig struct {
	DefaultMode            string `json:"defaultMode" mapstructure:"defaultMode"`
	PickingEnabled         bool   `json:"pickingEnabled" mapstructure:"pickingEnabled"`
	ClassificationProperty string `json:"classificationProperty" mapstructure:"classificationProperty"`
	LandCoverProperty      string `json:"landCoverProperty" mapstructure:"landCoverProperty"`
	// HighlightSentinel is the uniform value meaning "no selection". A
	// negative value lets the viewer pick one outside the loaded
	// feature-ID range.
	HighlightSentinel int `json:"highlightSentinel" mapstructure:"highlightSentinel"`
}

// RenderConfig holds rasterizer settings.
type RenderConfig struct {
	FPS           int    `json:"fps" mapstructure:"fps"`
	SmoothNormals bool   `json:"smoothNormals" mapstructure:"smoothNormals"`
	Background    string `json:"background" mapstructure:"background"`
}

// Load reads configuration from a JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./tsviewlogs")

	viper.SetDefault("render.fps", 30)
	viper.SetDefault("render.smoothNormals", true)
	viper.SetDefault("render.background", "20,20,30")

	viper.SetDefault("viewer.defaultMode", "landcover")
	viper.SetDefault("viewer.pickingEnabled", true)
	viper.SetDefault("viewer.classificationProperty", "class")
	viper.SetDefault("viewer.landCoverProperty", "landcover")
	viper.SetDefault("viewer.highlightSentinel", -1)

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetViewerConfig returns the viewer section.
func GetViewerConfig() ViewerConfig {
	return ViewerConfig{
		DefaultMode:            viper.GetString("viewer.defaultMode"),
		PickingEnabled:         viper.GetBool("viewer.pickingEnabled"),
		ClassificationProperty: viper.GetString("viewer.classificationProperty"),
		LandCoverProperty:      viper.GetString("viewer.landCoverProperty"),
		HighlightSentinel:      viper.GetInt("viewer.highlightSentinel"),
	}
}

// GetRenderConfig returns the render section.
func GetRenderConfig() RenderConfig {
	return RenderConfig{
		FPS:           viper.GetInt("render.fps"),
		SmoothNormals: viper.GetBool("render.smoothNormals"),
		Background:    viper.GetString("render.background"),
	}
}
