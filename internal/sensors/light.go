// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/enviro_computer/internal/env"
)

// LTR559 register map (subset used here).
const (
	ltrALSControl  = 0x80
	ltrPSControl   = 0x81
	ltrPSLED       = 0x82
	ltrPSNPulses   = 0x83
	ltrPSMeasRate  = 0x84
	ltrALSMeasRate = 0x85
	ltrPartID      = 0x86
	ltrALSData     = 0x88 // CH1 low, CH1 high, CH0 low, CH0 high
	ltrPSData      = 0x8D // low, high (11 bits)

	ltrPartIDValue = 0x09 // upper nibble of PART_ID

	ltrGain          = 4
	ltrIntegrationMs = 50.0
)

// Lux coefficients per channel-ratio band, from the LTR559 appnote.
var (
	ltrCh0Coeff = [4]float64{17743, 42785, 5926, 0}
	ltrCh1Coeff = [4]float64{-11059, 19548, -1185, 0}
)

// txer is the register transport of an I²C device.
type txer interface {
	Tx(w, r []byte) error
}

// Light reads ambient light and proximity from an LTR559.
type Light struct {
	dev txer
}

// OpenLTR559 probes and configures an LTR559 on bus at addr.
func OpenLTR559(bus i2c.Bus, addr uint16) (*Light, error) {
	return newLight(&i2c.Dev{Bus: bus, Addr: addr})
}

func newLight(dev txer) (*Light, error) {
	id := make([]byte, 1)
	if err := dev.Tx([]byte{ltrPartID}, id); err != nil {
		return nil, fmt.Errorf("LTR559 part id: %w", err)
	}
	if id[0]>>4 != ltrPartIDValue {
		return nil, fmt.Errorf("LTR559 part id: unexpected 0x%02X", id[0])
	}

	setup := [][2]byte{
		{ltrALSControl, 0x09},  // gain x4, active
		{ltrPSControl, 0x03},   // active
		{ltrPSLED, 0x1B},       // 30kHz, 100% duty, 50mA
		{ltrPSNPulses, 0x01},   // one pulse
		{ltrPSMeasRate, 0x02},  // 100ms
		{ltrALSMeasRate, 0x08}, // 50ms integration, 50ms repeat
	}
	for _, reg := range setup {
		if err := dev.Tx(reg[:], nil); err != nil {
			return nil, fmt.Errorf("LTR559 write 0x%02X: %w", reg[0], err)
		}
	}
	return &Light{dev: dev}, nil
}

func (l *Light) Name() string { return "light" }

func (l *Light) Keys() []string {
	return []string{env.KeyProximity, env.KeyLux}
}

func (l *Light) Read(context.Context) (map[string]float64, error) {
	ps := make([]byte, 2)
	if err := l.dev.Tx([]byte{ltrPSData}, ps); err != nil {
		return nil, fmt.Errorf("LTR559 proximity: %w", err)
	}
	als := make([]byte, 4)
	if err := l.dev.Tx([]byte{ltrALSData}, als); err != nil {
		return nil, fmt.Errorf("LTR559 als: %w", err)
	}

	proximity := binary.LittleEndian.Uint16(ps) & 0x07FF
	ch1 := binary.LittleEndian.Uint16(als[0:2])
	ch0 := binary.LittleEndian.Uint16(als[2:4])

	return map[string]float64{
		env.KeyProximity: float64(proximity),
		env.KeyLux:       LuxFromChannels(ch0, ch1, ltrIntegrationMs, ltrGain),
	}, nil
}

// LuxFromChannels converts the two ALS channel counts to lux.
func LuxFromChannels(ch0, ch1 uint16, integrationMs, gain float64) float64 {
	ratio := 101.0
	if total := float64(ch0) + float64(ch1); total > 0 {
		ratio = float64(ch1) * 100 / total
	}

	var idx int
	switch {
	case ratio < 45:
		idx = 0
	case ratio < 64:
		idx = 1
	case ratio < 85:
		idx = 2
	default:
		return 0
	}

	lux := float64(ch0)*ltrCh0Coeff[idx] - float64(ch1)*ltrCh1Coeff[idx]
	lux /= integrationMs / 100.0
	lux /= gain
	return lux / 10000.0
}
