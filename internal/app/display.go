// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/relabs-tech/enviro_computer/internal/config"
	"github.com/relabs-tech/enviro_computer/internal/display"
	"github.com/relabs-tech/enviro_computer/internal/env"
	"github.com/relabs-tech/enviro_computer/internal/sensors"
)

// OpenPanel opens the configured panel. The returned closer blanks and
// releases it.
func OpenPanel(cfg *config.Config, logger *slog.Logger) (display.Panel, func() error, error) {
	opts := display.DefaultST7735Opts
	w, h := opts.Height, opts.Width // logical size after rotation

	switch cfg.DisplayDriver {
	case "png":
		logger.Info("display: writing frames to file", "path", cfg.DisplayPNGPath)
		p := display.NewPNGPanel(cfg.DisplayPNGPath, w, h)
		return p, func() error { return nil }, nil
	case "st7735":
		if err := sensors.InitHost(); err != nil {
			return nil, nil, err
		}
		opts.Port = cfg.DisplaySPIPort
		opts.DCPin = cfg.DisplayDCPin
		opts.BacklightPin = cfg.DisplayBacklightPin
		opts.SpeedHz = cfg.DisplaySPISpeedHz
		d, err := display.OpenST7735(opts)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("display: ST7735 initialized", "port", opts.Port)
		return d, d.Halt, nil
	default:
		return nil, nil, fmt.Errorf("unknown display driver %q", cfg.DisplayDriver)
	}
}

// SyntheticHistory returns n values of a slow sine wave around base, with
// every tenth sample null so gaps are visible.
func SyntheticHistory(n int, base, amplitude float64) []*float64 {
	out := make([]*float64, n)
	for i := range out {
		if i%10 == 9 {
			continue
		}
		out[i] = env.Float(base + amplitude*math.Sin(float64(i)*2*math.Pi/float64(n)))
	}
	return out
}

// RunDisplayTest renders a synthetic history for every display mode,
// holding each frame for hold.
func RunDisplayTest(ctx context.Context, panel display.Panel, hold time.Duration, logger *slog.Logger) error {
	b := panel.Bounds()
	r := display.NewRenderer(b.Dx(), b.Dy())
	if err := panel.SetBacklight(true); err != nil {
		return fmt.Errorf("backlight: %w", err)
	}

	for i, m := range env.Modes {
		img, msg := r.Render(m, SyntheticHistory(b.Dx(), float64(10*(i+1)), 5))
		if err := panel.Draw(img); err != nil {
			return fmt.Errorf("draw %s: %w", m.Key, err)
		}
		logger.Info("display test frame", "metric", m.Key, "message", msg)
		if !sleep(ctx, hold) {
			return nil
		}
	}
	return nil
}
