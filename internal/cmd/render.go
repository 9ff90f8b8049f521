package cmd

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
	"github.com/MeKo-Tech/noisesandbox/internal/texture"
	"github.com/MeKo-Tech/noisesandbox/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render noise textures to PNG files",
	Long: `Render one or more frames of the noise texture without a window.

Each frame after the first pans the field by --pan-x/--pan-y tiles and runs a
regular update cycle, so the frames match what an interactive session would
display for the same parameters.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("out-dir", "frames", "Output directory for rendered frames")
	renderCmd.Flags().String("prefix", "noise", "File name prefix for rendered frames")
	renderCmd.Flags().Int("frames", 1, "Number of frames to render")
	renderCmd.Flags().Int32("pan-x", 0, "Horizontal pan between frames, in tiles")
	renderCmd.Flags().Int32("pan-y", 0, "Vertical pan between frames, in tiles")
	renderCmd.Flags().Int("scale", 1, "Integer enlargement of each frame (nearest neighbor)")
	renderCmd.Flags().String("fit", "", "Scale each frame to exactly WxH pixels (overrides --scale)")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	renderCmd.Flags().Bool("progress", true, "Show progress on stderr for multi-frame renders")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"render.out_dir", "out-dir"},
		{"render.prefix", "prefix"},
		{"render.frames", "frames"},
		{"render.pan_x", "pan-x"},
		{"render.pan_y", "pan-y"},
		{"render.scale", "scale"},
		{"render.fit", "fit"},
		{"render.png_compression", "png-compression"},
		{"render.progress", "progress"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, renderCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// renderOptions holds the frame sequence settings of the render command.
type renderOptions struct {
	OutDir         string
	Prefix         string
	Frames         int
	PanX           int32
	PanY           int32
	Scale          int
	FitW           int
	FitH           int
	Progress       bool
	PNGCompression string
}

func renderOptionsFrom(v *viper.Viper) (renderOptions, error) {
	opts := renderOptions{
		OutDir:         v.GetString("render.out_dir"),
		Prefix:         v.GetString("render.prefix"),
		Frames:         v.GetInt("render.frames"),
		PanX:           v.GetInt32("render.pan_x"),
		PanY:           v.GetInt32("render.pan_y"),
		Scale:          v.GetInt("render.scale"),
		Progress:       v.GetBool("render.progress"),
		PNGCompression: v.GetString("render.png_compression"),
	}

	if opts.Frames <= 0 {
		return opts, fmt.Errorf("frames must be positive")
	}
	if opts.Scale < 1 || opts.Scale > texture.MaxPreviewScale {
		return opts, fmt.Errorf("scale must be within [1,%d]", texture.MaxPreviewScale)
	}
	if opts.Prefix == "" {
		opts.Prefix = "noise"
	}
	if fit := v.GetString("render.fit"); fit != "" {
		w, h, err := parseSize(fit)
		if err != nil {
			return opts, err
		}
		opts.FitW, opts.FitH = w, h
	}
	return opts, nil
}

func (o renderOptions) framePath(i int) string {
	if o.Frames == 1 {
		return filepath.Join(o.OutDir, o.Prefix+".png")
	}
	return filepath.Join(o.OutDir, fmt.Sprintf("%s_%04d.png", o.Prefix, i))
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	cfg, err := sandboxConfig(viper.GetViper())
	if err != nil {
		return err
	}
	opts, err := renderOptionsFrom(viper.GetViper())
	if err != nil {
		return err
	}

	written, err := renderFrames(cmd.Context(), cfg, opts)
	if err != nil {
		return err
	}

	logger.Info("Render complete",
		"dir", opts.OutDir,
		"frames", len(written),
		"seed", cfg.Params.Seed,
	)
	return nil
}

// renderFrames drives a sandbox through opts.Frames update cycles and writes
// the active texture after each. It returns the written paths.
func renderFrames(ctx context.Context, cfg sandbox.Config, opts renderOptions) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	level, err := texture.ParsePNGCompression(opts.PNGCompression)
	if err != nil {
		return nil, err
	}

	sb, err := sandbox.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, err := sb.Start(ctx); err != nil {
		return nil, fmt.Errorf("initial generation failed: %w", err)
	}

	progress := worker.NewProgress(opts.Frames, "frames", opts.Progress && opts.Frames > 1)
	written := make([]string, 0, opts.Frames)

	for i := 0; i < opts.Frames; i++ {
		if i > 0 && (opts.PanX != 0 || opts.PanY != 0) {
			sb.Pan(opts.PanX, opts.PanY)
			if _, ok := sb.Tick(ctx); !ok {
				if err := ctx.Err(); err != nil {
					return written, err
				}
				return written, fmt.Errorf("frame %d: texture was not regenerated", i)
			}
		}

		buf := sb.ActiveBuffer().Buffer()
		if buf == nil {
			return written, fmt.Errorf("frame %d: no active texture", i)
		}

		path := opts.framePath(i)
		if err := texture.WritePNG(path, frameImage(buf, opts), level); err != nil {
			progress.Step(err)
			progress.Done()
			return written, err
		}
		written = append(written, path)
		progress.Step(nil)
	}

	progress.Done()
	return written, nil
}

func frameImage(buf *texture.Buffer, opts renderOptions) image.Image {
	switch {
	case opts.FitW > 0 && opts.FitH > 0:
		dst := image.NewRGBA(image.Rect(0, 0, opts.FitW, opts.FitH))
		buf.ScaleTo(dst, dst.Bounds())
		return dst
	case opts.Scale > 1:
		return texture.Enlarge(buf, opts.Scale)
	default:
		return buf.Image()
	}
}
