package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "noisesandbox",
	Short: "An interactive fractal noise sandbox",
	Long: `NoiseSandbox renders a seeded fractal (fBm) noise field over a tile grid into a
double-buffered grayscale texture.

Parameters can be changed while the texture is displayed; every change is
regenerated into the hidden buffer and swapped in on the next update cycle.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	flags.Bool("verbose", false, "Enable verbose logging")

	flags.Int64("seed", -1, "Noise seed (negative picks a random seed)")
	flags.Float64("frequency", 0.01, "Base frequency in cycles per tile")
	flags.Int("octaves", 4, "Number of fBm octaves (1-8)")
	flags.Float64("lacunarity", 2.0, "Frequency multiplier per octave (1-4)")
	flags.Float64("persistence", 0.5, "Amplitude multiplier per octave (0-1)")
	flags.Int32("offset-x", 0, "Horizontal pan offset in tiles")
	flags.Int32("offset-y", 0, "Vertical pan offset in tiles")
	flags.String("basis", "perlin", "Noise primitive (perlin, simplex)")
	flags.Int("workers", 0, "Regeneration workers (0 uses one per CPU)")

	flags.Int("grid-size", 250, "Grid size in tiles per side")
	flags.Float64("tile-size", 10, "Tile edge length in world units")
	flags.Float64("pan-speed", 1.0, "Pan speed multiplier")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"verbose", "verbose"},
		{"noise.seed", "seed"},
		{"noise.frequency", "frequency"},
		{"noise.octaves", "octaves"},
		{"noise.lacunarity", "lacunarity"},
		{"noise.persistence", "persistence"},
		{"noise.offset_x", "offset-x"},
		{"noise.offset_y", "offset-y"},
		{"noise.basis", "basis"},
		{"noise.workers", "workers"},
		{"grid.size", "grid-size"},
		{"grid.tile_size", "tile-size"},
		{"grid.pan_speed", "pan-speed"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, flags.Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("NOISESANDBOX")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
