// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/relabs-tech/enviro_computer/internal/config"
	"github.com/relabs-tech/enviro_computer/internal/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPanelPNG(t *testing.T) {
	cfg := &config.Config{DisplayDriver: "png", DisplayPNGPath: filepath.Join(t.TempDir(), "f.png")}
	p, closer, err := OpenPanel(cfg, testLogger())
	require.NoError(t, err)
	defer closer()
	assert.Equal(t, image.Rect(0, 0, 160, 80), p.Bounds())
}

func TestOpenPanelUnknownDriver(t *testing.T) {
	_, _, err := OpenPanel(&config.Config{DisplayDriver: "oled"}, testLogger())
	assert.ErrorContains(t, err, "oled")
}

func TestSyntheticHistory(t *testing.T) {
	h := SyntheticHistory(160, 10, 5)
	require.Len(t, h, 160)
	assert.Nil(t, h[9])
	require.NotNil(t, h[0])
	assert.InDelta(t, 10, *h[0], 1e-9)
}

func TestRunDisplayTestDrawsEveryMode(t *testing.T) {
	p := &fakePanel{}
	require.NoError(t, RunDisplayTest(context.Background(), p, time.Nanosecond, testLogger()))
	assert.Equal(t, len(env.Modes), p.draws)
	assert.Equal(t, []bool{true}, p.backlight)
}
