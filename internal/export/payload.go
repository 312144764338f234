// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package export

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/relabs-tech/enviro_computer/internal/env"
)

// ErrEmptyPayload is returned when a point with no fields is submitted.
var ErrEmptyPayload = errors.New("export: payload has no fields")

// Point is one time-series sample ready to be written to a sink.
type Point struct {
	Measurement string             `json:"measurement"`
	Tags        map[string]string  `json:"tags"`
	Fields      map[string]float64 `json:"fields"`
	Time        time.Time          `json:"time"`
}

// Sink receives exported points.
type Sink interface {
	Name() string
	Write(ctx context.Context, p Point) error
}

// Payload accumulates the latest non-null value of every reading key.
// A key whose latest reading is null is removed.
type Payload struct {
	measurement string
	tags        map[string]string
	fields      map[string]float64
}

// NewPayload returns an empty payload for measurement, tagged host=hostTag.
func NewPayload(measurement, hostTag string) *Payload {
	return &Payload{
		measurement: measurement,
		tags:        map[string]string{"host": hostTag},
		fields:      make(map[string]float64),
	}
}

// Apply folds a reading set into the payload.
func (p *Payload) Apply(set env.Set) {
	for key, v := range set {
		if v == nil {
			delete(p.fields, key)
			continue
		}
		p.fields[key] = *v
	}
}

// Fields returns a copy of the current fields.
func (p *Payload) Fields() map[string]float64 {
	return maps.Clone(p.fields)
}

// Len is the number of fields currently held.
func (p *Payload) Len() int { return len(p.fields) }

// Point snapshots the payload at t.
func (p *Payload) Point(t time.Time) Point {
	return Point{
		Measurement: p.measurement,
		Tags:        maps.Clone(p.tags),
		Fields:      p.Fields(),
		Time:        t,
	}
}
