// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(h *History) []any {
	out := []any{}
	for _, v := range h.Values() {
		if v == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, *v)
	}
	return out
}

func TestHistoryIsBoundedFIFO(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Append(Float(float64(i)))
		assert.LessOrEqual(t, h.Len(), 3)
	}

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []any{3.0, 4.0, 5.0}, values(h))
	require.NotNil(t, h.Latest())
	assert.Equal(t, 5.0, *h.Latest())
}

func TestHistoryKeepsNilPlaceholders(t *testing.T) {
	h := NewHistory(4)
	h.Append(Float(1))
	h.Append(nil)
	h.Append(Float(2))

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []any{1.0, nil, 2.0}, values(h))

	h.Append(nil)
	assert.Nil(t, h.Latest())
}

func TestHistoryCopiesAppendedValue(t *testing.T) {
	h := NewHistory(2)
	v := 1.5
	h.Append(&v)
	v = 9

	assert.Equal(t, 1.5, *h.Latest())
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, 1, h.Cap())
	assert.Nil(t, h.Latest())
	assert.Empty(t, h.Values())
}

func TestHistoriesRecord(t *testing.T) {
	hs := NewHistories(2)
	hs.Record(Set{KeyLux: Float(10), KeyProximity: nil})
	hs.Record(Set{KeyLux: Float(11), KeyProximity: Float(3)})
	hs.Record(Set{KeyLux: nil, KeyProximity: Float(4)})

	assert.Equal(t, []any{11.0, nil}, values(hs.Get(KeyLux)))
	assert.Equal(t, []any{3.0, 4.0}, values(hs.Get(KeyProximity)))
	assert.Equal(t, 0, hs.Get(KeyPM10).Len())
}
