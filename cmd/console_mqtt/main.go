// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/myahrs_driver/internal/app"
	"github.com/relabs-tech/myahrs_driver/internal/config"
	"github.com/relabs-tech/myahrs_driver/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "console_mqtt",
	Short:        "Print the messages published by myahrs_driver",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitGlobal(configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg := config.Get()

		logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return app.RunConsoleMQTT(ctx, cfg, logger, os.Stdout)
	},
}

func main() {
	rootCmd.Flags().StringVar(&configPath, "config", "./myahrs_config.txt", "path to parameter file")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
