// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relabs-tech/myahrs_driver/internal/app"
	"github.com/relabs-tech/myahrs_driver/internal/config"
	"github.com/relabs-tech/myahrs_driver/internal/logging"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		useMock    bool
	)

	cmd := &cobra.Command{
		Use:           "myahrs_driver",
		Short:         "Publish myAHRS+ IMU samples over MQTT",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitGlobal(configPath); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg := config.Get()

			logger, err := logging.New(logging.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				File:   cfg.LogFile,
			})
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer logger.Sync()

			logger.Info("starting myahrs driver", zap.String("config", configPath), zap.Bool("mock", useMock))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.RunDriver(ctx, cfg, logger, useMock)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "./myahrs_config.txt", "path to parameter file")
	cmd.Flags().BoolVar(&useMock, "mock", false, "use a synthetic device instead of the serial port")
	return cmd
}

// run executes the driver with args and returns the process exit status.
// Any failure is reported on stderr as "ERROR: <msg>".
func run(args []string, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
