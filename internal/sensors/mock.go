// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"math"
	"time"

	"github.com/relabs-tech/enviro_computer/internal/env"
)

// mockGroup generates smooth changing values for a fixed set of keys.
type mockGroup struct {
	name  string
	keys  []string
	start time.Time
	gen   func(elapsed float64) map[string]float64
}

func (m *mockGroup) Name() string   { return m.name }
func (m *mockGroup) Keys() []string { return m.keys }

func (m *mockGroup) Read(context.Context) (map[string]float64, error) {
	return m.gen(time.Since(m.start).Seconds()), nil
}

// NewMockGroups returns the four sensor groups backed by synthetic data,
// for running without Enviro+ hardware. Proximity spikes once a minute so
// the display mode cycles.
func NewMockGroups() []env.Group {
	start := time.Now()
	comp := NewCompensator(5, 2.25)

	return []env.Group{
		&mockGroup{
			name:  "light",
			keys:  []string{env.KeyProximity, env.KeyLux},
			start: start,
			gen: func(t float64) map[string]float64 {
				proximity := 20.0
				if math.Mod(t, 60) < 15 {
					proximity = 2000
				}
				return map[string]float64{
					env.KeyProximity: proximity,
					env.KeyLux:       300 + 250*math.Sin(t/600),
				}
			},
		},
		&mockGroup{
			name: "weather",
			keys: []string{
				env.KeyPressure, env.KeyHumidity, env.KeyCPURaw,
				env.KeyCPUAvg, env.KeyTempRaw, env.KeyTempCorrected,
			},
			start: start,
			gen: func(t float64) map[string]float64 {
				cpu := 48 + 3*math.Sin(t/90)
				avg := comp.Add(cpu)
				raw := 27 + 2*math.Sin(t/300)
				return map[string]float64{
					env.KeyPressure:      1013 + 4*math.Cos(t/1200),
					env.KeyHumidity:      45 + 10*math.Sin(t/500),
					env.KeyCPURaw:        cpu,
					env.KeyCPUAvg:        avg,
					env.KeyTempRaw:       raw,
					env.KeyTempCorrected: comp.Correct(raw, avg),
				}
			},
		},
		&mockGroup{
			name:  "gas",
			keys:  []string{env.KeyOxidising, env.KeyReducing, env.KeyNH3},
			start: start,
			gen: func(t float64) map[string]float64 {
				return map[string]float64{
					env.KeyOxidising: 20 + 5*math.Sin(t/200),
					env.KeyReducing:  300 + 40*math.Cos(t/250),
					env.KeyNH3:       90 + 15*math.Sin(t/180),
				}
			},
		},
		&mockGroup{
			name:  "particulates",
			keys:  []string{env.KeyPM1, env.KeyPM25, env.KeyPM10},
			start: start,
			gen: func(t float64) map[string]float64 {
				base := 4 + 3*math.Abs(math.Sin(t/400))
				return map[string]float64{
					env.KeyPM1:  math.Round(base),
					env.KeyPM25: math.Round(base * 1.6),
					env.KeyPM10: math.Round(base * 2.1),
				}
			},
		},
	}
}
