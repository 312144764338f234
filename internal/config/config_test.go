// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "enviro_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, uint16(0x76), cfg.BME280I2CAddr)
	assert.Equal(t, uint16(0x23), cfg.LTR559I2CAddr)
	assert.Equal(t, uint16(0x49), cfg.ADS1015I2CAddr)
	assert.Equal(t, uint(9600), cfg.PMS5003BaudRate)
	assert.Equal(t, []string{"vcgencmd", "measure_temp"}, cfg.CPUTempCommand)
	assert.Equal(t, 5, cfg.CPUTempWindow)
	assert.InDelta(t, 2.25, cfg.TempCompensationFactor, 1e-9)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, 1500.0, cfg.ProximityThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.ProximityDebounce)
	assert.Equal(t, 8, cfg.BacklightOnHour)
	assert.Equal(t, 21, cfg.BacklightOffHour)
	assert.Equal(t, "enviro", cfg.InfluxDatabase)
	assert.Equal(t, "enviroplus", cfg.InfluxMeasurement)
	assert.Equal(t, "st7735", cfg.DisplayDriver)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Zero(t, cfg.WebServerPort)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `# enviro exporter
LOG_LEVEL=debug
BME280_I2C_ADDR=0x77
POLL_INTERVAL=5s
DISPLAY_DRIVER=png
DISPLAY_PNG_PATH=/tmp/frame.png
INFLUX_ADDR=http://influx.lan:8086
MQTT_BROKER=tcp://localhost:1883
WEB_SERVER_PORT=8080
SENSOR_MOCK=true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, uint16(0x77), cfg.BME280I2CAddr)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "png", cfg.DisplayDriver)
	assert.Equal(t, "/tmp/frame.png", cfg.DisplayPNGPath)
	assert.Equal(t, "http://influx.lan:8086", cfg.InfluxAddr)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, 8080, cfg.WebServerPort)
	assert.True(t, cfg.SensorMock)
}

func TestLoadQuotedCPUCommand(t *testing.T) {
	path := writeConfig(t, `CPU_TEMP_COMMAND=sh -c "cat /sys/class/thermal/thermal_zone0/temp"`+"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sh", "-c", "cat /sys/class/thermal/thermal_zone0/temp"}, cfg.CPUTempCommand)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "NOT_A_KEY=1\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_A_KEY")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad address":  "LTR559_I2C_ADDR=zz\n",
		"bad duration": "POLL_INTERVAL=soon\n",
		"zero poll":    "POLL_INTERVAL=0s\n",
		"bad level":    "LOG_LEVEL=loud\n",
		"bad driver":   "DISPLAY_DRIVER=hdmi\n",
		"bad hours":    "BACKLIGHT_ON_HOUR=22\nBACKLIGHT_OFF_HOUR=21\n",
		"zero factor":  "TEMP_COMPENSATION_FACTOR=0\n",
		"no database":  "INFLUX_ADDR=http://influx.lan:8086\nINFLUX_DATABASE=\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadEmptyInfluxAddrDisablesExport(t *testing.T) {
	cfg, err := Load(writeConfig(t, "INFLUX_ADDR=\nINFLUX_DATABASE=\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.InfluxAddr)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("INFLUX_DATABASE", "garden")
	cfg, err := Load(writeConfig(t, "INFLUX_DATABASE=enviro\n"))
	require.NoError(t, err)
	assert.Equal(t, "garden", cfg.InfluxDatabase)
}
