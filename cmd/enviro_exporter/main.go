// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// enviro_exporter polls the Enviro+ sensors, graphs one metric on the
// ST7735 panel and exports every reading to InfluxDB (and MQTT when a
// broker is configured). A proximity tap cycles the graphed metric.
//
// Run:
//
//	go run ./cmd/enviro_exporter --config enviro_config.txt
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
	logger := logging.New(cfg, "enviro_exporter")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting enviro exporter", "config", *configPath)
	if err := app.RunExporter(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
	logger.Info("exiting")
}
