package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
	"github.com/MeKo-Tech/noisesandbox/internal/server"
	"github.com/MeKo-Tech/noisesandbox/internal/texture"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live texture and parameter controls over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("tps", 30, "Update cycles per second")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served textures")
	serveCmd.Flags().String("png-compression", "speed", "PNG compression (default, speed, best, none)")
	serveCmd.Flags().Duration("status-interval", 250*time.Millisecond, "Push interval of the status stream")
	serveCmd.Flags().Duration("shutdown-timeout", 5*time.Second, "Grace period for open requests on shutdown")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.tps", "tps")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.png_compression", "png-compression")
	mustBind("serve.status_interval", "status-interval")
	mustBind("serve.shutdown_timeout", "shutdown-timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	tps := viper.GetInt("serve.tps")
	shutdownTimeout := viper.GetDuration("serve.shutdown_timeout")
	if tps <= 0 {
		return fmt.Errorf("tps must be positive")
	}

	level, err := texture.ParsePNGCompression(viper.GetString("serve.png_compression"))
	if err != nil {
		return err
	}

	cfg, err := sandboxConfig(viper.GetViper())
	if err != nil {
		return err
	}
	sb, err := sandbox.New(cfg, logger)
	if err != nil {
		return err
	}

	preview := server.NewPreview(sb, server.Config{
		TPS:            tps,
		CacheControl:   viper.GetString("serve.cache_control"),
		PNGCompression: level,
		StatusInterval: viper.GetDuration("serve.status_interval"),
	}, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := sb.Start(ctx); err != nil {
		return fmt.Errorf("initial generation failed: %w", err)
	}

	go func() {
		if err := preview.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Update loop stopped", "error", err)
		}
	}()

	srv := &http.Server{Addr: addr, Handler: server.WithCORS(preview.Handler()), ReadHeaderTimeout: 5 * time.Second}

	logger.Info("Noise sandbox listening",
		"addr", addr,
		"texture", fmt.Sprintf("%dx%d", sb.Stats().Width, sb.Stats().Height),
		"grid", cfg.Grid.String(),
		"seed", sb.Params().Seed,
		"tps", tps,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
