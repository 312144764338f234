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

	"github.com/spf13/pflag"

	"github.com/relabs-tech/enviro_computer/internal/app"
	"github.com/relabs-tech/enviro_computer/internal/config"
	"github.com/relabs-tech/enviro_computer/internal/logging"
)

func main() {
	configPath := pflag.String("config", config.DefaultPath, "path to configuration file")
	pflag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()
	logger := logging.New(cfg, "console_mqtt")
	logger.Info("starting enviro console (MQTT subscriber)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsoleMQTT(ctx, cfg, os.Stdout, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
