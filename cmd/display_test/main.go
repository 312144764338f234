// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// display_test draws a synthetic graph for every display mode, for panel
// bring-up without sensors.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/relabs-tech/enviro_computer/internal/app"
	"github.com/relabs-tech/enviro_computer/internal/config"
	"github.com/relabs-tech/enviro_computer/internal/logging"
)

func main() {
	configPath := pflag.String("config", config.DefaultPath, "path to configuration file")
	hold := pflag.Duration("hold", 2*time.Second, "time each frame stays on screen")
	pflag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()
	logger := logging.New(cfg, "display_test")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	panel, closePanel, err := app.OpenPanel(cfg, logger)
	if err != nil {
		logger.Error("display open failed", "err", err)
		os.Exit(1)
	}
	defer closePanel()

	if err := app.RunDisplayTest(ctx, panel, *hold, logger); err != nil {
		logger.Error("display test failed", "err", err)
		os.Exit(1)
	}
}
