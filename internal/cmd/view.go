package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
	"github.com/MeKo-Tech/noisesandbox/internal/viewer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open an interactive window (requires the ebiten build tag)",
	Long: `Open a window showing the live texture.

Keys: space picks a random seed, arrows pan by one tile, +/- change the
frequency, [ and ] change the octave count, G toggles grid lines, Q or Esc quits.`,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().Int("window-width", 800, "Initial window width in pixels")
	viewCmd.Flags().Int("window-height", 800, "Initial window height in pixels")
	viewCmd.Flags().Int("tps", 60, "Update cycles per second")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"view.window_width", "window-width"},
		{"view.window_height", "window-height"},
		{"view.tps", "tps"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, viewCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runView(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	cfg, err := sandboxConfig(viper.GetViper())
	if err != nil {
		return err
	}
	sb, err := sandbox.New(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("Generating initial textures",
		"grid", cfg.Grid.String(),
		"seed", cfg.Params.Seed,
	)
	if _, err := sb.Start(cmd.Context()); err != nil {
		return fmt.Errorf("initial generation failed: %w", err)
	}

	return viewer.Run(sb, viewer.Options{
		WindowWidth:  viper.GetInt("view.window_width"),
		WindowHeight: viper.GetInt("view.window_height"),
		TPS:          viper.GetInt("view.tps"),
	})
}
