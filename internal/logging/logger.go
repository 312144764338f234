// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/relabs-tech/enviro_computer/internal/config"
)

// New builds the process logger: tinted console output by default,
// JSON lines when LOG_FORMAT=json.
func New(cfg *config.Config, appName string) *slog.Logger {
	return newWithWriter(os.Stdout, cfg, appName)
}

func newWithWriter(w io.Writer, cfg *config.Config, appName string) *slog.Logger {
	if cfg.LogFormat == "json" {
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: cfg.LogLevel,
		})
		return slog.New(h).With("app", appName)
	}

	h := tint.NewHandler(w, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.DateTime,
	})
	return slog.New(h).With("app", appName)
}
