// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/enviro_computer/internal/config"
	"github.com/relabs-tech/enviro_computer/internal/env"
)

var (
	hostOnce    sync.Once
	hostInitErr error
)

// InitHost initializes the periph host drivers once per process.
func InitHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostInitErr = fmt.Errorf("periph host init: %w", err)
		}
	})
	return hostInitErr
}

// unavailable stands in for a group whose device could not be opened;
// every read fails with the open error so its keys stay null.
type unavailable struct {
	name string
	keys []string
	err  error
}

func (u *unavailable) Name() string   { return u.name }
func (u *unavailable) Keys() []string { return u.keys }
func (u *unavailable) Read(context.Context) (map[string]float64, error) {
	return nil, u.err
}

// Suite owns the opened sensor groups and their hardware handles.
type Suite struct {
	Groups  []env.Group
	closers []func() error
}

// Close releases every device handle.
func (s *Suite) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open initializes every Enviro+ sensor group. A device that fails to open
// is logged and replaced by a group that reports the failure each cycle.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Suite, error) {
	if cfg.SensorMock {
		logger.Info("using mock sensor groups")
		return &Suite{Groups: NewMockGroups()}, nil
	}

	if err := InitHost(); err != nil {
		return nil, err
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("I2C bus open: %w", err)
	}
	suite := &Suite{closers: []func() error{bus.Close}}

	suite.add(logger, "light", []string{env.KeyProximity, env.KeyLux}, func() (env.Group, func() error, error) {
		l, err := OpenLTR559(bus, cfg.LTR559I2CAddr)
		return l, nil, err
	})

	suite.add(logger, "weather", (&Weather{}).Keys(), func() (env.Group, func() error, error) {
		dev, err := OpenBME280(bus, cfg.BME280I2CAddr)
		if err != nil {
			return nil, nil, err
		}
		cpu := NewCPUThermometer(cfg.CPUTempCommand)
		comp := NewCompensator(cfg.CPUTempWindow, cfg.TempCompensationFactor)
		if seed, err := cpu.Temperature(ctx); err != nil {
			logger.Warn("cpu temperature seed failed", "err", err)
		} else {
			comp.Seed(seed)
		}
		return NewWeather(dev, cpu, comp), dev.Halt, nil
	})

	suite.add(logger, "gas", []string{env.KeyOxidising, env.KeyReducing, env.KeyNH3}, func() (env.Group, func() error, error) {
		g, err := OpenMICS6814(bus, cfg.ADS1015I2CAddr, cfg.GasHeaterPin)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Halt, nil
	})

	suite.add(logger, "particulates", []string{env.KeyPM1, env.KeyPM25, env.KeyPM10}, func() (env.Group, func() error, error) {
		p, err := OpenPMS5003(cfg.PMS5003SerialPort, cfg.PMS5003BaudRate, cfg.PMS5003EnablePin, cfg.PMS5003ResetPin, cfg.PMS5003Timeout)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	})

	return suite, nil
}

func (s *Suite) add(logger *slog.Logger, name string, keys []string, open func() (env.Group, func() error, error)) {
	g, closer, err := open()
	if err != nil {
		logger.Warn("sensor group unavailable", "group", name, "err", err)
		s.Groups = append(s.Groups, &unavailable{name: name, keys: keys, err: err})
		return
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	logger.Info("sensor group ready", "group", name)
	s.Groups = append(s.Groups, g)
}
