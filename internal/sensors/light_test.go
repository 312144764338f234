// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/enviro_computer/internal/env"
)

// fakeLTR559 answers register reads from a map and records writes.
type fakeLTR559 struct {
	regs   map[byte][]byte
	writes [][]byte
	err    error
}

func (f *fakeLTR559) Tx(w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	if len(r) == 0 {
		f.writes = append(f.writes, append([]byte(nil), w...))
		return nil
	}
	copy(r, f.regs[w[0]])
	return nil
}

func TestLightSetupAndRead(t *testing.T) {
	dev := &fakeLTR559{regs: map[byte][]byte{
		ltrPartID:  {0x92},
		ltrPSData:  {0xDC, 0x05},             // 1500
		ltrALSData: {0x64, 0x00, 0xC8, 0x00}, // ch1=100, ch0=200
	}}

	l, err := newLight(dev)
	require.NoError(t, err)
	assert.Len(t, dev.writes, 6)
	assert.Equal(t, []byte{ltrALSControl, 0x09}, dev.writes[0])

	got, err := l.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1500.0, got[env.KeyProximity])
	assert.InDelta(t, LuxFromChannels(200, 100, ltrIntegrationMs, ltrGain), got[env.KeyLux], 1e-9)
}

func TestLightMasksProximityTo11Bits(t *testing.T) {
	dev := &fakeLTR559{regs: map[byte][]byte{
		ltrPartID:  {0x92},
		ltrPSData:  {0xFF, 0xFF},
		ltrALSData: {0, 0, 0, 0},
	}}
	l, err := newLight(dev)
	require.NoError(t, err)

	got, err := l.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2047.0, got[env.KeyProximity])
	assert.Zero(t, got[env.KeyLux])
}

func TestLightRejectsWrongPart(t *testing.T) {
	_, err := newLight(&fakeLTR559{regs: map[byte][]byte{ltrPartID: {0x11}}})
	assert.Error(t, err)

	_, err = newLight(&fakeLTR559{err: errors.New("nack")})
	assert.Error(t, err)
}

func TestLuxFromChannels(t *testing.T) {
	// ratio 100*100/300 = 33 -> band 0
	want := (200*17743.0 + 100*11059.0) / 0.5 / 4 / 10000
	assert.InDelta(t, want, LuxFromChannels(200, 100, 50, 4), 1e-9)

	// ratio >= 85 -> 0 lux
	assert.Zero(t, LuxFromChannels(10, 990, 50, 4))
	// dark
	assert.Zero(t, LuxFromChannels(0, 0, 50, 4))
}
