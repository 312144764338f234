// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

// Reading keys produced by the sensor groups.
const (
	KeyProximity     = "ltr559.proximity"
	KeyLux           = "ltr559.lux"
	KeyCPUAvg        = "pi.cpu.avg"
	KeyCPURaw        = "pi.cpu.raw"
	KeyTempRaw       = "bme280.temp.raw"
	KeyTempCorrected = "bme280.temp.corrected"
	KeyPressure      = "bme280.pressure"
	KeyHumidity      = "bme280.humidity"
	KeyOxidising     = "mics6814.oxidising"
	KeyReducing      = "mics6814.reducing"
	KeyNH3           = "mics6814.nh3"
	KeyPM1           = "pms5003.pm010"
	KeyPM25          = "pms5003.pm025"
	KeyPM10          = "pms5003.pm100"
)

// Keys lists every reading key in a stable order.
var Keys = []string{
	KeyProximity,
	KeyLux,
	KeyCPUAvg,
	KeyCPURaw,
	KeyTempRaw,
	KeyTempCorrected,
	KeyPressure,
	KeyHumidity,
	KeyOxidising,
	KeyReducing,
	KeyNH3,
	KeyPM1,
	KeyPM25,
	KeyPM10,
}

// Metric is a displayable reading stream.
type Metric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Unit  string `json:"unit"`
}

// Modes is the fixed display cycle, in tap order.
var Modes = []Metric{
	{Key: KeyTempCorrected, Label: "temperature", Unit: "C"},
	{Key: KeyPressure, Label: "pressure", Unit: "hPa"},
	{Key: KeyHumidity, Label: "humidity", Unit: "%"},
	{Key: KeyLux, Label: "light", Unit: "Lux"},
	{Key: KeyOxidising, Label: "oxidised", Unit: "kO"},
	{Key: KeyReducing, Label: "reduced", Unit: "kO"},
	{Key: KeyNH3, Label: "nh3", Unit: "kO"},
	{Key: KeyPM1, Label: "pm1", Unit: "ug/m3"},
	{Key: KeyPM25, Label: "pm25", Unit: "ug/m3"},
	{Key: KeyPM10, Label: "pm10", Unit: "ug/m3"},
}

// ShortLabel is the label as shown on the panel (first four characters).
func (m Metric) ShortLabel() string {
	r := []rune(m.Label)
	if len(r) > 4 {
		r = r[:4]
	}
	return string(r)
}
