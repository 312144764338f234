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
)

func TestParseCPUTemp(t *testing.T) {
	v, err := ParseCPUTemp("temp=48.3'C\n")
	require.NoError(t, err)
	assert.InDelta(t, 48.3, v, 1e-9)
}

func TestParseCPUTempRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "48.3", "temp=abc'C", "temp'C=1"} {
		_, err := ParseCPUTemp(in)
		assert.ErrorIs(t, err, ErrUnexpectedFormat, in)
	}
}

func TestCPUThermometerRunsCommand(t *testing.T) {
	th := NewCPUThermometer([]string{"echo", "temp=51.0'C"})
	v, err := th.Temperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 51.0, v, 1e-9)
}

func TestCPUThermometerMissingCommand(t *testing.T) {
	_, err := NewCPUThermometer(nil).Temperature(context.Background())
	assert.Error(t, err)

	_, err = NewCPUThermometer([]string{"definitely-not-a-command-xyz"}).Temperature(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnexpectedFormat))
}

func TestCompensatorSlidingAverage(t *testing.T) {
	c := NewCompensator(5, 2.25)

	assert.InDelta(t, 50.0, c.Add(50), 1e-9) // seeds the window

	avg := c.Add(55)
	assert.InDelta(t, (50*4+55)/5.0, avg, 1e-9)

	for i := 0; i < 5; i++ {
		avg = c.Add(60)
	}
	assert.InDelta(t, 60.0, avg, 1e-9)
}

func TestCompensatorSeed(t *testing.T) {
	c := NewCompensator(5, 2.25)
	assert.Zero(t, c.Average())

	c.Seed(40)
	assert.InDelta(t, (40*4+45)/5.0, c.Add(45), 1e-9)
}

func TestCompensatorCorrect(t *testing.T) {
	c := NewCompensator(5, 2.25)
	// raw 30, cpu avg 52.5 -> 30 - 22.5/2.25 = 20
	assert.InDelta(t, 20.0, c.Correct(30, 52.5), 1e-9)
}
