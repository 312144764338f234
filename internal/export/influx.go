// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package export

import (
	"context"
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
)

// InfluxConfig addresses an InfluxDB 1.x server.
type InfluxConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

// InfluxWriter writes points to InfluxDB over its HTTP line-protocol API.
type InfluxWriter struct {
	client   client.Client
	database string
}

// NewInfluxWriter creates the HTTP client. No connection is made until the
// first write.
func NewInfluxWriter(cfg InfluxConfig) (*InfluxWriter, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("influx client: %w", err)
	}
	return &InfluxWriter{client: c, database: cfg.Database}, nil
}

func (w *InfluxWriter) Name() string { return "influxdb" }

// Write submits p as a single-point batch.
func (w *InfluxWriter) Write(ctx context.Context, p Point) error {
	if len(p.Fields) == 0 {
		return ErrEmptyPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  w.database,
		Precision: "s",
	})
	if err != nil {
		return fmt.Errorf("influx batch: %w", err)
	}

	fields := make(map[string]interface{}, len(p.Fields))
	for k, v := range p.Fields {
		fields[k] = v
	}
	pt, err := client.NewPoint(p.Measurement, p.Tags, fields, p.Time)
	if err != nil {
		return fmt.Errorf("influx point: %w", err)
	}
	bp.AddPoint(pt)

	if err := w.client.Write(bp); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (w *InfluxWriter) Close() error {
	return w.client.Close()
}
