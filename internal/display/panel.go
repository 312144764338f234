// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// Panel is a small colour display with a switchable backlight.
type Panel interface {
	// Bounds is the logical (post-rotation) drawing area.
	Bounds() image.Rectangle
	// Draw pushes a full frame to the panel.
	Draw(img image.Image) error
	// SetBacklight switches the backlight on or off.
	SetBacklight(on bool) error
}

// PNGPanel writes every frame to a PNG file, for running without a panel.
type PNGPanel struct {
	path      string
	bounds    image.Rectangle
	backlight bool
}

// NewPNGPanel returns a panel of width×height that writes frames to path.
func NewPNGPanel(path string, width, height int) *PNGPanel {
	return &PNGPanel{path: path, bounds: image.Rect(0, 0, width, height), backlight: true}
}

func (p *PNGPanel) Bounds() image.Rectangle { return p.bounds }

// Draw writes img atomically: a temp file renamed over the target.
func (p *PNGPanel) Draw(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("png panel: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("png panel encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("png panel: %w", err)
	}
	return os.Rename(tmp.Name(), p.path)
}

func (p *PNGPanel) SetBacklight(on bool) error {
	p.backlight = on
	return nil
}

// Backlight reports the last backlight state set.
func (p *PNGPanel) Backlight() bool { return p.backlight }
