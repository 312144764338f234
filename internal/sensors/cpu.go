// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const cpuCommandTimeout = 5 * time.Second

// ErrUnexpectedFormat is returned when the CPU thermometer output cannot be parsed.
var ErrUnexpectedFormat = errors.New("unexpected CPU temperature format")

// CPUThermometer reads the SoC temperature through an external command,
// "vcgencmd measure_temp" on a Raspberry Pi.
type CPUThermometer struct {
	command []string
}

// NewCPUThermometer returns a thermometer running command (program + args).
func NewCPUThermometer(command []string) *CPUThermometer {
	return &CPUThermometer{command: command}
}

// Temperature runs the command and parses its output in °C.
func (t *CPUThermometer) Temperature(ctx context.Context) (float64, error) {
	if len(t.command) == 0 {
		return 0, fmt.Errorf("cpu temperature: no command configured")
	}
	ctx, cancel := context.WithTimeout(ctx, cpuCommandTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, t.command[0], t.command[1:]...).Output()
	if err != nil {
		return 0, fmt.Errorf("cpu temperature: %s: %w", t.command[0], err)
	}
	return ParseCPUTemp(string(out))
}

// ParseCPUTemp extracts the value between '=' and the last '\'' from
// output such as "temp=48.3'C".
func ParseCPUTemp(out string) (float64, error) {
	start := strings.Index(out, "=")
	end := strings.LastIndex(out, "'")
	if start < 0 || end <= start {
		return 0, fmt.Errorf("%w: %q", ErrUnexpectedFormat, strings.TrimSpace(out))
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(out[start+1:end]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnexpectedFormat, err)
	}
	return v, nil
}

// Compensator cancels the board's self-heating bias on the BME280 reading
// using a sliding average of CPU temperatures.
//
//	corrected = raw - (avgCPU - raw) / factor
type Compensator struct {
	window []float64
	size   int
	factor float64
}

// NewCompensator returns a compensator averaging the last size CPU samples.
func NewCompensator(size int, factor float64) *Compensator {
	if size < 1 {
		size = 1
	}
	return &Compensator{size: size, factor: factor}
}

// Seed fills the whole window with v.
func (c *Compensator) Seed(v float64) {
	c.window = make([]float64, c.size)
	for i := range c.window {
		c.window[i] = v
	}
}

// Add pushes a CPU sample, evicting the oldest, and returns the new average.
// The first sample seeds the window when it is still empty.
func (c *Compensator) Add(v float64) float64 {
	if len(c.window) == 0 {
		c.Seed(v)
	} else {
		c.window = append(c.window[1:], v)
	}
	return c.Average()
}

// Average returns the mean of the window, 0 when unseeded.
func (c *Compensator) Average() float64 {
	if len(c.window) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range c.window {
		sum += v
	}
	return sum / float64(len(c.window))
}

// Correct applies the compensation to a raw sensor temperature.
func (c *Compensator) Correct(raw, avgCPU float64) float64 {
	return raw - (avgCPU-raw)/c.factor
}
