// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/relabs-tech/enviro_computer/internal/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func sampleSnapshot(pressure *float64) Snapshot {
	return Snapshot{
		Time:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Mode:    env.KeyPressure,
		Message: "pres: 1013.4 hPa",
		Readings: env.Set{
			env.KeyPressure: pressure,
			env.KeyLux:      env.Float(120),
		},
	}
}

func TestStatusReadingsBeforeFirstCycle(t *testing.T) {
	s := NewStatusServer(testLogger())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	code, _ := get(t, srv.URL+"/api/readings")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStatusReadings(t *testing.T) {
	s := NewStatusServer(testLogger())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	s.Publish(sampleSnapshot(nil))
	code, body := get(t, srv.URL+"/api/readings")
	require.Equal(t, http.StatusOK, code)

	var got Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, env.KeyPressure, got.Mode)
	assert.Nil(t, got.Readings[env.KeyPressure])
	require.NotNil(t, got.Readings[env.KeyLux])
	assert.Equal(t, 120.0, *got.Readings[env.KeyLux])
}

func TestStatusMetricsDropNullSeries(t *testing.T) {
	s := NewStatusServer(testLogger())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	s.Publish(sampleSnapshot(env.Float(1013.4)))
	_, body := get(t, srv.URL+"/metrics")
	assert.Contains(t, body, `enviro_reading{metric="bme280.pressure"} 1013.4`)
	assert.Contains(t, body, `enviro_reading{metric="ltr559.lux"} 120`)

	s.Publish(sampleSnapshot(nil))
	_, body = get(t, srv.URL+"/metrics")
	assert.NotContains(t, body, `metric="bme280.pressure"`)
	assert.Contains(t, body, `metric="ltr559.lux"`)
}

func TestStatusWebsocketStream(t *testing.T) {
	s := NewStatusServer(testLogger())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	s.Publish(sampleSnapshot(env.Float(1000)))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, 1000.0, *first.Readings[env.KeyPressure])

	s.Publish(sampleSnapshot(env.Float(1001)))
	var second Snapshot
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, 1001.0, *second.Readings[env.KeyPressure])
}
