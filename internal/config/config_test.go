package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"render": { "fps": 60 },
		"viewer": { "defaultMode": "classification", "pickingEnabled": false }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 60, viper.GetInt("render.fps"))
	assert.Equal(t, "classification", viper.GetString("viewer.defaultMode"))
	assert.Equal(t, false, viper.GetBool("viewer.pickingEnabled"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./tsviewlogs", viper.GetString("logsDir"))
	assert.Equal(t, 30, viper.GetInt("render.fps"))
	assert.Equal(t, true, viper.GetBool("render.smoothNormals"))
	assert.Equal(t, "20,20,30", viper.GetString("render.background"))
	assert.Equal(t, "landcover", viper.GetString("viewer.defaultMode"))
	assert.Equal(t, true, viper.GetBool("viewer.pickingEnabled"))
	assert.Equal(t, "class", viper.GetString("viewer.classificationProperty"))
	assert.Equal(t, "landcover", viper.GetString("viewer.landCoverProperty"))
	assert.Equal(t, -1, viper.GetInt("viewer.highlightSentinel"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetViewerConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{"viewer": { "defaultMode": "landcover", "landCoverProperty": "cover" }}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(cfg), 0644))
	require.NoError(t, Load(dir))

	vc := GetViewerConfig()
	assert.Equal(t, "landcover", vc.DefaultMode)
	assert.Equal(t, true, vc.PickingEnabled)
	assert.Equal(t, "class", vc.ClassificationProperty)
	assert.Equal(t, "cover", vc.LandCoverProperty)
	assert.Equal(t, -1, vc.HighlightSentinel)
}

func TestGetRenderConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"render":{"fps":24,"smoothNormals":false}}`), 0644))
	require.NoError(t, Load(dir))

	rc := GetRenderConfig()
	assert.Equal(t, 24, rc.FPS)
	assert.Equal(t, false, rc.SmoothNormals)
}
