// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/relabs-tech/enviro_computer/internal/config"
	"github.com/relabs-tech/enviro_computer/internal/display"
	"github.com/relabs-tech/enviro_computer/internal/env"
	"github.com/relabs-tech/enviro_computer/internal/export"
	"github.com/relabs-tech/enviro_computer/internal/sensors"
)

// minExportSamples is the raw-temperature history length that opens the
// export gate.
const minExportSamples = 2

// LoopOptions tunes the acquisition loop.
type LoopOptions struct {
	Interval           time.Duration
	ProximityThreshold float64
	Debounce           time.Duration
	BacklightOnHour    int
	BacklightOffHour   int
}

// LoopOptionsFromConfig pulls the loop settings out of cfg.
func LoopOptionsFromConfig(cfg *config.Config) LoopOptions {
	return LoopOptions{
		Interval:           cfg.PollInterval,
		ProximityThreshold: cfg.ProximityThreshold,
		Debounce:           cfg.ProximityDebounce,
		BacklightOnHour:    cfg.BacklightOnHour,
		BacklightOffHour:   cfg.BacklightOffHour,
	}
}

// Snapshot is what the loop publishes at the end of each cycle.
type Snapshot struct {
	Time     time.Time `json:"time"`
	Mode     string    `json:"mode"`
	Message  string    `json:"message"`
	Readings env.Set   `json:"readings"`
}

// SnapshotPublisher receives the end-of-cycle snapshot.
type SnapshotPublisher interface {
	Publish(s Snapshot)
}

// Exporter owns the loop state: histories, payload, display mode and the
// time of the last accepted tap.
type Exporter struct {
	groups    []env.Group
	sinks     []export.Sink
	panel     display.Panel
	renderer  *display.Renderer
	histories *env.Histories
	payload   *export.Payload
	status    SnapshotPublisher
	opts      LoopOptions
	logger    *slog.Logger

	mode    int
	lastTap time.Time

	now func() time.Time
}

// NewExporter wires the loop. History depth follows the panel width.
func NewExporter(groups []env.Group, sinks []export.Sink, panel display.Panel, payload *export.Payload, opts LoopOptions, logger *slog.Logger) *Exporter {
	b := panel.Bounds()
	return &Exporter{
		groups:    groups,
		sinks:     sinks,
		panel:     panel,
		renderer:  display.NewRenderer(b.Dx(), b.Dy()),
		histories: env.NewHistories(b.Dx()),
		payload:   payload,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// WithStatus makes the loop publish a snapshot after every cycle.
func (e *Exporter) WithStatus(p SnapshotPublisher) *Exporter {
	e.status = p
	return e
}

// Mode is the current display mode.
func (e *Exporter) Mode() env.Metric { return env.Modes[e.mode] }

// Histories exposes the per-key histories.
func (e *Exporter) Histories() *env.Histories { return e.histories }

// Run executes cycles until ctx is cancelled.
func (e *Exporter) Run(ctx context.Context) error {
	e.logger.Info("starting acquisition loop", "interval", e.opts.Interval, "groups", len(e.groups))
	for {
		if ctx.Err() != nil {
			return nil
		}
		e.Step(ctx, e.now())
		if !sleep(ctx, e.opts.Interval) {
			e.logger.Info("acquisition loop stopped")
			return nil
		}
	}
}

// Step runs one cycle at time now and returns the displayed message.
func (e *Exporter) Step(ctx context.Context, now time.Time) string {
	set := e.read(ctx)
	e.histories.Record(set)
	e.logger.Debug("readings", "set", set)

	e.export(ctx, set, now)
	e.handleTap(set, now)

	on := BacklightOn(now.Hour(), e.opts.BacklightOnHour, e.opts.BacklightOffHour)
	if err := e.panel.SetBacklight(on); err != nil {
		e.logger.Warn("backlight switch failed", "on", on, "err", err)
	}

	metric := env.Modes[e.mode]
	img, msg := e.renderer.Render(metric, e.histories.Get(metric.Key).Values())
	if err := e.panel.Draw(img); err != nil {
		e.logger.Warn("display draw failed", "metric", metric.Key, "err", err)
	}
	e.logger.Info(msg, "metric", metric.Key)

	if e.status != nil {
		e.status.Publish(Snapshot{Time: now, Mode: metric.Key, Message: msg, Readings: set})
	}
	return msg
}

func (e *Exporter) read(ctx context.Context) env.Set {
	results := make([]env.GroupResult, 0, len(e.groups))
	for _, g := range e.groups {
		res := env.ReadGroup(ctx, g)
		if res.Err != nil {
			e.logger.Warn("sensor group read failed", "group", res.Group, "err", res.Err)
		}
		results = append(results, res)
	}
	return env.Merge(results...)
}

func (e *Exporter) export(ctx context.Context, set env.Set, now time.Time) {
	e.payload.Apply(set)
	if e.histories.Get(env.KeyTempRaw).Len() < minExportSamples {
		return
	}

	pt := e.payload.Point(now)
	for _, s := range e.sinks {
		if err := s.Write(ctx, pt); err != nil {
			e.logger.Error("export failed", "sink", s.Name(), "err", err)
		}
	}
}

func (e *Exporter) handleTap(set env.Set, now time.Time) {
	prox, ok := set.Value(env.KeyProximity)
	if !ok || prox <= e.opts.ProximityThreshold {
		return
	}
	if now.Sub(e.lastTap) <= e.opts.Debounce {
		return
	}
	e.mode = (e.mode + 1) % len(env.Modes)
	e.lastTap = now
	e.logger.Info("display mode changed", "metric", env.Modes[e.mode].Key)
}

// BacklightOn reports whether the backlight should be lit at hour: on from
// onHour through offHour inclusive.
func BacklightOn(hour, onHour, offHour int) bool {
	return hour >= onHour && hour <= offHour
}

// sleep waits for d or until ctx is done; it reports whether the wait
// completed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RunExporter opens the sensors, panel and sinks described by cfg and runs
// the acquisition loop until ctx is cancelled.
func RunExporter(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	suite, err := sensors.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := suite.Close(); err != nil {
			logger.Warn("sensor shutdown", "err", err)
		}
	}()

	panel, closePanel, err := OpenPanel(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closePanel(); err != nil {
			logger.Warn("display shutdown", "err", err)
		}
	}()

	sinks, closeSinks, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	exp := NewExporter(
		suite.Groups,
		sinks,
		panel,
		export.NewPayload(cfg.InfluxMeasurement, cfg.InfluxHostTag),
		LoopOptionsFromConfig(cfg),
		logger,
	)

	if cfg.WebServerPort > 0 {
		status := NewStatusServer(logger)
		exp.WithStatus(status)
		go func() {
			if err := status.ListenAndServe(ctx, cfg.WebServerPort); err != nil {
				logger.Error("status server stopped", "err", err)
			}
		}()
	}

	return exp.Run(ctx)
}

// openSinks builds the export sinks enabled in cfg. An empty INFLUX_ADDR or
// MQTT_BROKER leaves that sink out.
func openSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]export.Sink, func(), error) {
	var (
		sinks   []export.Sink
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("sink shutdown", "err", err)
			}
		}
	}

	if cfg.InfluxAddr != "" {
		w, err := export.NewInfluxWriter(export.InfluxConfig{
			Addr:     cfg.InfluxAddr,
			Database: cfg.InfluxDatabase,
			Username: cfg.InfluxUsername,
			Password: cfg.InfluxPassword,
			Timeout:  cfg.InfluxTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, w.Close)
		sinks = append(sinks, w)
	} else {
		logger.Info("INFLUX_ADDR empty, InfluxDB export disabled")
	}

	if cfg.MQTTBroker != "" {
		pub := export.NewMQTTPublisher(export.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.TopicReadings,
		}, logger)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := pub.Connect(connectCtx); err != nil {
			logger.Warn("mqtt not connected yet, retrying in background", "broker", cfg.MQTTBroker, "err", err)
		}
		cancel()
		closers = append(closers, pub.Close)
		sinks = append(sinks, pub)
	}

	return sinks, closeAll, nil
}
