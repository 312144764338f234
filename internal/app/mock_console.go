// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/enviro_computer/internal/env"
	"github.com/relabs-tech/enviro_computer/internal/sensors"
)

// RunMockConsole prints synthetic reading sets to out every interval until
// ctx is cancelled.
func RunMockConsole(ctx context.Context, out io.Writer, interval time.Duration) error {
	groups := sensors.NewMockGroups()
	for {
		results := make([]env.GroupResult, 0, len(groups))
		for _, g := range groups {
			results = append(results, env.ReadGroup(ctx, g))
		}
		set := env.Merge(results...)
		fmt.Fprintln(out, FormatSet(set))

		if !sleep(ctx, interval) {
			return nil
		}
	}
}

// FormatSet renders a reading set on one line; null values print as "--".
func FormatSet(set env.Set) string {
	line := ""
	for i, k := range set.SortedKeys() {
		if i > 0 {
			line += "  "
		}
		if v, ok := set.Value(k); ok {
			line += fmt.Sprintf("%s=%.2f", k, v)
		} else {
			line += k + "=--"
		}
	}
	return line
}
