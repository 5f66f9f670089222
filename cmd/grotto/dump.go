package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/grottonet/grotto/internal/capture"
	"github.com/grottonet/grotto/internal/dumper"
)

func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Run a relaying proxy that frames and dumps both directions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, prof, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			serveMetrics(ctx, cfg.MetricsAddress)

			var store *capture.Store
			if cfg.CaptureDSN != "" {
				if err := capture.RunMigrations(ctx, cfg.CaptureDSN); err != nil {
					return err
				}
				store, err = capture.New(ctx, cfg.CaptureDSN)
				if err != nil {
					return err
				}
				defer store.Close()
				slog.Info("capture store connected")
			}

			suppress := make(map[byte]bool, len(cfg.Dump.SuppressTypes))
			for _, t := range cfg.Dump.SuppressTypes {
				suppress[byte(t)] = true
			}

			proxy := dumper.New(dumper.Config{
				ListenAddress:   cfg.Dump.ListenAddress,
				UpstreamAddress: cfg.Dump.UpstreamAddress,
				Suppress:        suppress,
				Store:           store,
				DumpPayloads:    cfg.Dump.DumpPayloads,
			}, prof)
			return proxy.Run(ctx)
		},
	}
}
