package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/grottonet/grotto/internal/bot"
	"github.com/grottonet/grotto/internal/config"
	"github.com/grottonet/grotto/internal/profile"
	"github.com/grottonet/grotto/internal/session"
)

func playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Connect to a server, complete the login handshake and play",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, prof, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			serveMetrics(ctx, cfg.MetricsAddress)
			return runPlay(ctx, cfg, prof)
		},
	}
}

func runPlay(ctx context.Context, cfg config.Client, prof *profile.Profile) error {
	conn, err := net.Dial("tcp", cfg.ServerAddress)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", cfg.ServerAddress, err)
	}
	defer conn.Close()

	sess := session.New(conn, prof, session.Config{
		PlayerName:     cfg.PlayerName,
		Password:       cfg.Password,
		ClientUUID:     cfg.ClientUUID,
		InventorySlots: cfg.InventorySlots,
		WorldInfoRetry: time.Duration(cfg.WorldInfoRetry) * time.Second,
	})
	if err := sess.Run(ctx); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	if !cfg.Bot.Enabled {
		// Keep the session alive and the world current until cancelled.
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := sess.Poll(64); err != nil {
					return fmt.Errorf("polling: %w", err)
				}
			}
		}
	}

	runner := bot.NewRunner(sess, bot.Policy{
		PreferRight:   cfg.Bot.PreferRight,
		JumpIfBlocked: cfg.Bot.JumpIfBlocked,
	}, time.Duration(cfg.Bot.TickMillis)*time.Millisecond, nil)
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("bot loop: %w", err)
	}
	return nil
}
