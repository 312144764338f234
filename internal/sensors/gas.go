// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/relabs-tech/enviro_computer/internal/env"
)

const (
	gasSupplyVolts   = 3.3
	gasLoadOhms      = 56000.0
	gasMaxVoltage    = 4096 * physic.MilliVolt
	gasSampleRate    = 1600 * physic.Hertz
	gasChannelHeater = "MICS6814 heater"
)

// sampler is one ADC input.
type sampler interface {
	Read() (analog.Sample, error)
}

// Gas reads the three MICS6814 sensing elements through an ADS1015.
// Values are sensor resistances in kΩ.
type Gas struct {
	oxidising sampler
	reducing  sampler
	nh3       sampler
	halt      []func() error
}

// NewGas builds a gas group from three ADC inputs.
func NewGas(oxidising, reducing, nh3 sampler) *Gas {
	return &Gas{oxidising: oxidising, reducing: reducing, nh3: nh3}
}

// OpenMICS6814 opens the ADS1015 on bus at addr and switches the
// sensor heater on via heaterPin.
func OpenMICS6814(bus i2c.Bus, addr uint16, heaterPin string) (*Gas, error) {
	adc, err := ads1x15.NewADS1015(bus, &ads1x15.Opts{I2cAddress: addr})
	if err != nil {
		return nil, fmt.Errorf("ADS1015 init (0x%02X): %w", addr, err)
	}

	if heaterPin != "" {
		pin := gpioreg.ByName(heaterPin)
		if pin == nil {
			return nil, fmt.Errorf("%s pin %q not found", gasChannelHeater, heaterPin)
		}
		if err := pin.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("%s on: %w", gasChannelHeater, err)
		}
	}

	channels := []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2}
	pins := make([]ads1x15.PinADC, 0, len(channels))
	for _, ch := range channels {
		p, err := adc.PinForChannel(ch, gasMaxVoltage, gasSampleRate, ads1x15.SaveEnergy)
		if err != nil {
			for _, opened := range pins {
				_ = opened.Halt()
			}
			return nil, fmt.Errorf("ADS1015 channel %v: %w", ch, err)
		}
		pins = append(pins, p)
	}

	g := NewGas(pins[0], pins[1], pins[2])
	for _, p := range pins {
		g.halt = append(g.halt, p.Halt)
	}
	return g, nil
}

func (g *Gas) Name() string { return "gas" }

func (g *Gas) Keys() []string {
	return []string{env.KeyOxidising, env.KeyReducing, env.KeyNH3}
}

func (g *Gas) Read(context.Context) (map[string]float64, error) {
	inputs := []struct {
		key string
		in  sampler
	}{
		{env.KeyOxidising, g.oxidising},
		{env.KeyReducing, g.reducing},
		{env.KeyNH3, g.nh3},
	}

	out := make(map[string]float64, len(inputs))
	for _, i := range inputs {
		s, err := i.in.Read()
		if err != nil {
			return nil, fmt.Errorf("ADS1015 %s: %w", i.key, err)
		}
		volts := float64(s.V) / float64(physic.Volt)
		out[i.key] = Resistance(volts) / 1000
	}
	return out, nil
}

// Halt releases the ADC inputs.
func (g *Gas) Halt() error {
	var first error
	for _, h := range g.halt {
		if err := h(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Resistance converts the voltage across the load resistor to the sensing
// element resistance in Ω. A saturated input reads as 0.
func Resistance(volts float64) float64 {
	denom := gasSupplyVolts - volts
	if denom <= 0 {
		return 0
	}
	return volts * gasLoadOhms / denom
}
