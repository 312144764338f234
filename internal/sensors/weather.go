// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/relabs-tech/enviro_computer/internal/env"
)

// envSensor is the part of bmxx80.Dev the weather group needs.
type envSensor interface {
	Sense(e *physic.Env) error
}

// cpuSource provides the SoC temperature in °C.
type cpuSource interface {
	Temperature(ctx context.Context) (float64, error)
}

// Weather reads pressure, humidity and temperature from the BME280 and
// corrects the temperature for heat coming off the CPU.
type Weather struct {
	dev  envSensor
	cpu  cpuSource
	comp *Compensator
}

// NewWeather wires a BME280 with a CPU thermometer and compensator.
func NewWeather(dev envSensor, cpu cpuSource, comp *Compensator) *Weather {
	return &Weather{dev: dev, cpu: cpu, comp: comp}
}

// OpenBME280 opens the BME280 on bus at addr.
func OpenBME280(bus i2c.Bus, addr uint16) (*bmxx80.Dev, error) {
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("BME280 init (0x%02X): %w", addr, err)
	}
	return dev, nil
}

func (w *Weather) Name() string { return "weather" }

func (w *Weather) Keys() []string {
	return []string{
		env.KeyPressure,
		env.KeyHumidity,
		env.KeyCPURaw,
		env.KeyCPUAvg,
		env.KeyTempRaw,
		env.KeyTempCorrected,
	}
}

func (w *Weather) Read(ctx context.Context) (map[string]float64, error) {
	var e physic.Env
	if err := w.dev.Sense(&e); err != nil {
		return nil, fmt.Errorf("BME280 sense: %w", err)
	}

	cpu, err := w.cpu.Temperature(ctx)
	if err != nil {
		return nil, err
	}
	avg := w.comp.Add(cpu)
	raw := e.Temperature.Celsius()

	return map[string]float64{
		env.KeyPressure:      float64(e.Pressure) / float64(100*physic.Pascal), // hPa
		env.KeyHumidity:      float64(e.Humidity) / float64(physic.PercentRH),
		env.KeyCPURaw:        cpu,
		env.KeyCPUAvg:        avg,
		env.KeyTempRaw:       raw,
		env.KeyTempCorrected: w.comp.Correct(raw, avg),
	}, nil
}
