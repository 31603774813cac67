// tsview - Terminal 3D Tiles viewer
// Inspect WFF tilesets in your terminal: full 3D rendering with feature
// picking, attribute hover, display modes and shareable camera poses.
//
// Controls:
//
//	Mouse move  - Hover a feature to see its attributes
//	Mouse click - Select a feature (click empty space to deselect)
//	Mouse drag  - Orbit the camera
//	Scroll      - Zoom in/out
//	W/S         - Move forward/back
//	A/D         - Move left/right
//	1/2/3       - Raw / classification / land cover display mode
//	M           - Cycle display modes
//	P           - Toggle picking on/off
//	C           - Copy camera pose to clipboard
//	Paste       - Restore a camera pose
//	X           - Save the current frame as a PNG
//	R           - Reset view
//	?           - Toggle HUD overlay
//	Esc/Q       - Quit
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Maxar-Corp/wff-tools/internal/config"
	"github.com/Maxar-Corp/wff-tools/internal/logging"
)

var (
	configDir string
	fpsFlag   int
	bgFlag    string
	modeFlag  string
)

var rootCmd = &cobra.Command{
	Use:          "tsview [flags] <tileset.json|tile.glb>",
	Short:        "Terminal viewer for 3D Tiles with feature picking",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := setup()
		return run(args[0], log)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configDir, "config", ".", "Directory containing "+config.ConfigFileName)
	rootCmd.Flags().IntVar(&fpsFlag, "fps", 0, "Target FPS (overrides config)")
	rootCmd.Flags().StringVar(&bgFlag, "bg", "", "Background color as R,G,B (overrides config)")
	rootCmd.Flags().StringVar(&modeFlag, "mode", "", "Initial display mode (overrides config)")
}

// setup loads the config file and opens the log file. Both are optional;
// a missing config means defaults, a failed log open means no logging.
func setup() zerolog.Logger {
	cfgErr := config.Load(configDir)

	log, _, err := logging.Setup(config.GetString("logsDir"), config.GetString("logLevel"))
	if err != nil {
		return zerolog.Nop()
	}
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("no config file, using defaults")
	} else {
		log.Info().Str("dir", configDir).Msg("loaded config")
	}
	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
