// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

import (
	"context"
	"log/slog"
	"sort"
)

// Set maps reading keys to optional values for one cycle.
// A nil value means the key was unavailable this cycle.
type Set map[string]*float64

// Value returns the reading for key and whether it was available.
func (s Set) Value(key string) (float64, bool) {
	v, ok := s[key]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// SortedKeys returns the keys of s in lexical order.
func (s Set) SortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LogValue renders the set as a sorted group; unavailable keys log as null.
func (s Set) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(s))
	for _, k := range s.SortedKeys() {
		if v, ok := s.Value(k); ok {
			attrs = append(attrs, slog.Float64(k, v))
		} else {
			attrs = append(attrs, slog.String(k, "null"))
		}
	}
	return slog.GroupValue(attrs...)
}

// Float returns a pointer to a copy of v.
func Float(v float64) *float64 {
	return &v
}

// Group is one independently failing set of sensor readings.
type Group interface {
	// Name identifies the group in logs.
	Name() string
	// Keys lists every reading key the group produces.
	Keys() []string
	// Read samples the hardware. On error no values are used.
	Read(ctx context.Context) (map[string]float64, error)
}

// GroupResult is the outcome of reading one group.
type GroupResult struct {
	Group  string
	Keys   []string
	Values map[string]float64
	Err    error
}

// ReadGroup reads g and captures either its values or its failure.
func ReadGroup(ctx context.Context, g Group) GroupResult {
	res := GroupResult{Group: g.Name(), Keys: g.Keys()}
	values, err := g.Read(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Values = values
	return res
}

// Merge folds group results into one reading set. Every key of a failed
// group is present and nil; keys a successful group omitted are nil too.
func Merge(results ...GroupResult) Set {
	set := make(Set)
	for _, r := range results {
		for _, k := range r.Keys {
			if r.Err != nil {
				set[k] = nil
				continue
			}
			if v, ok := r.Values[k]; ok {
				set[k] = Float(v)
			} else {
				set[k] = nil
			}
		}
	}
	return set
}
