package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/grottonet/grotto/internal/config"
	"github.com/grottonet/grotto/internal/profile"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "grotto",
		Short:         "Headless client and traffic dumper for a length-prefixed binary game protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(playCmd(), dumpCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()
	return ctx, cancel
}

// setup loads config, configures slog and resolves the version profile.
func setup(cmd *cobra.Command) (config.Client, *profile.Profile, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = os.Getenv("GROTTO_CONFIG")
	}

	cfg := config.DefaultClient()
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadClient(cfgPath)
		if err != nil {
			return cfg, nil, fmt.Errorf("loading config: %w", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	prof := profile.Default()
	if cfg.ProfilePath != "" {
		var err error
		prof, err = profile.Load(cfg.ProfilePath)
		if err != nil {
			return cfg, nil, fmt.Errorf("loading profile: %w", err)
		}
	}
	slog.Info("profile resolved", "name", prof.Name, "handshake", prof.Handshake,
		"frame_important", len(prof.TileFrameImportant))
	return cfg, prof, nil
}

// serveMetrics exposes Prometheus metrics when an address is configured.
func serveMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	go func() {
		slog.Info("metrics listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server", "err", err)
		}
	}()
}
