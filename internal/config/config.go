// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/viper"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "enviro_config.txt"

// Config holds all application configuration values.
type Config struct {
	// Logging
	LogLevel  slog.Level
	LogFormat string // "text" or "json"

	// Sensor Hardware
	I2CBus            string
	BME280I2CAddr     uint16
	LTR559I2CAddr     uint16
	ADS1015I2CAddr    uint16
	GasHeaterPin      string
	PMS5003SerialPort string
	PMS5003BaudRate   uint
	PMS5003EnablePin  string
	PMS5003ResetPin   string
	PMS5003Timeout    time.Duration
	SensorMock        bool

	// Temperature compensation
	CPUTempCommand         []string
	CPUTempWindow          int
	TempCompensationFactor float64

	// Display
	DisplayDriver       string // "st7735" or "png"
	DisplaySPIPort      string
	DisplayDCPin        string
	DisplayBacklightPin string
	DisplaySPISpeedHz   int64
	DisplayPNGPath      string

	// Loop timing and interaction
	PollInterval       time.Duration
	ProximityThreshold float64
	ProximityDebounce  time.Duration
	BacklightOnHour    int
	BacklightOffHour   int

	// InfluxDB
	InfluxAddr        string
	InfluxDatabase    string
	InfluxUsername    string
	InfluxPassword    string
	InfluxMeasurement string
	InfluxHostTag     string
	InfluxTimeout     time.Duration

	// MQTT
	MQTTBroker    string
	MQTTClientID  string
	TopicReadings string

	// Web Server
	WebServerPort int
}

// defaults mirrors the constants the Enviro+ exporter has always used.
var defaults = map[string]any{
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "text",
	"I2C_BUS":                  "",
	"BME280_I2C_ADDR":          "0x76",
	"LTR559_I2C_ADDR":          "0x23",
	"ADS1015_I2C_ADDR":         "0x49",
	"GAS_HEATER_PIN":           "GPIO24",
	"PMS5003_SERIAL_PORT":      "/dev/ttyAMA0",
	"PMS5003_BAUD_RATE":        "9600",
	"PMS5003_ENABLE_PIN":       "GPIO22",
	"PMS5003_RESET_PIN":        "GPIO27",
	"PMS5003_READ_TIMEOUT":     "5s",
	"SENSOR_MOCK":              "false",
	"CPU_TEMP_COMMAND":         "vcgencmd measure_temp",
	"CPU_TEMP_WINDOW":          "5",
	"TEMP_COMPENSATION_FACTOR": "2.25",
	"DISPLAY_DRIVER":           "st7735",
	"DISPLAY_SPI_PORT":         "SPI0.1",
	"DISPLAY_DC_PIN":           "GPIO9",
	"DISPLAY_BACKLIGHT_PIN":    "GPIO12",
	"DISPLAY_SPI_SPEED_HZ":     "10000000",
	"DISPLAY_PNG_PATH":         "enviro.png",
	"POLL_INTERVAL":            "15s",
	"PROXIMITY_THRESHOLD":      "1500",
	"PROXIMITY_DEBOUNCE":       "500ms",
	"BACKLIGHT_ON_HOUR":        "8",
	"BACKLIGHT_OFF_HOUR":       "21",
	"INFLUX_ADDR":              "http://alexandria.local:8086",
	"INFLUX_DATABASE":          "enviro",
	"INFLUX_USERNAME":          "",
	"INFLUX_PASSWORD":          "",
	"INFLUX_MEASUREMENT":       "enviroplus",
	"INFLUX_HOST_TAG":          "enviroplus",
	"INFLUX_TIMEOUT":           "10s",
	"MQTT_BROKER":              "",
	"MQTT_CLIENT_ID":           "enviro-exporter",
	"TOPIC_READINGS":           "enviro/readings",
	"WEB_SERVER_PORT":          "0",
}

// Package-level singleton: InitGlobal sets it once,
// Get reads it under a read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the KEY=VALUE configuration file at configPath and returns a
// Config. A missing file yields the defaults. Environment variables with the
// same key override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetConfigType("env")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := checkKeys(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := cfg.fill(v); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkKeys rejects keys in the file that the application does not know.
func checkKeys(v *viper.Viper) error {
	var unknown []string
	for _, key := range v.AllKeys() {
		if _, ok := defaults[strings.ToUpper(key)]; !ok {
			unknown = append(unknown, strings.ToUpper(key))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown config key: %q", unknown[0])
	}
	return nil
}

func (c *Config) fill(v *viper.Viper) error {
	var err error

	if c.LogLevel, err = parseLogLevel(v.GetString("LOG_LEVEL")); err != nil {
		return err
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT")))

	// Sensor Hardware
	c.I2CBus = v.GetString("I2C_BUS")
	if c.BME280I2CAddr, err = parseAddr(v, "BME280_I2C_ADDR"); err != nil {
		return err
	}
	if c.LTR559I2CAddr, err = parseAddr(v, "LTR559_I2C_ADDR"); err != nil {
		return err
	}
	if c.ADS1015I2CAddr, err = parseAddr(v, "ADS1015_I2C_ADDR"); err != nil {
		return err
	}
	c.GasHeaterPin = v.GetString("GAS_HEATER_PIN")
	c.PMS5003SerialPort = v.GetString("PMS5003_SERIAL_PORT")
	baud, err := parseInt(v, "PMS5003_BAUD_RATE")
	if err != nil {
		return err
	}
	c.PMS5003BaudRate = uint(baud)
	c.PMS5003EnablePin = v.GetString("PMS5003_ENABLE_PIN")
	c.PMS5003ResetPin = v.GetString("PMS5003_RESET_PIN")
	if c.PMS5003Timeout, err = parseDuration(v, "PMS5003_READ_TIMEOUT"); err != nil {
		return err
	}
	if c.SensorMock, err = strconv.ParseBool(v.GetString("SENSOR_MOCK")); err != nil {
		return fmt.Errorf("invalid SENSOR_MOCK %q: %w", v.GetString("SENSOR_MOCK"), err)
	}

	// Temperature compensation
	if c.CPUTempCommand, err = shlex.Split(v.GetString("CPU_TEMP_COMMAND")); err != nil {
		return fmt.Errorf("invalid CPU_TEMP_COMMAND: %w", err)
	}
	if c.CPUTempWindow, err = parseInt(v, "CPU_TEMP_WINDOW"); err != nil {
		return err
	}
	if c.TempCompensationFactor, err = parseFloat(v, "TEMP_COMPENSATION_FACTOR"); err != nil {
		return err
	}

	// Display
	c.DisplayDriver = strings.ToLower(strings.TrimSpace(v.GetString("DISPLAY_DRIVER")))
	c.DisplaySPIPort = v.GetString("DISPLAY_SPI_PORT")
	c.DisplayDCPin = v.GetString("DISPLAY_DC_PIN")
	c.DisplayBacklightPin = v.GetString("DISPLAY_BACKLIGHT_PIN")
	speed, err := parseInt(v, "DISPLAY_SPI_SPEED_HZ")
	if err != nil {
		return err
	}
	c.DisplaySPISpeedHz = int64(speed)
	c.DisplayPNGPath = v.GetString("DISPLAY_PNG_PATH")

	// Loop timing and interaction
	if c.PollInterval, err = parseDuration(v, "POLL_INTERVAL"); err != nil {
		return err
	}
	if c.ProximityThreshold, err = parseFloat(v, "PROXIMITY_THRESHOLD"); err != nil {
		return err
	}
	if c.ProximityDebounce, err = parseDuration(v, "PROXIMITY_DEBOUNCE"); err != nil {
		return err
	}
	if c.BacklightOnHour, err = parseInt(v, "BACKLIGHT_ON_HOUR"); err != nil {
		return err
	}
	if c.BacklightOffHour, err = parseInt(v, "BACKLIGHT_OFF_HOUR"); err != nil {
		return err
	}

	// InfluxDB
	c.InfluxAddr = v.GetString("INFLUX_ADDR")
	c.InfluxDatabase = v.GetString("INFLUX_DATABASE")
	c.InfluxUsername = v.GetString("INFLUX_USERNAME")
	c.InfluxPassword = v.GetString("INFLUX_PASSWORD")
	c.InfluxMeasurement = v.GetString("INFLUX_MEASUREMENT")
	c.InfluxHostTag = v.GetString("INFLUX_HOST_TAG")
	if c.InfluxTimeout, err = parseDuration(v, "INFLUX_TIMEOUT"); err != nil {
		return err
	}

	// MQTT
	c.MQTTBroker = v.GetString("MQTT_BROKER")
	c.MQTTClientID = v.GetString("MQTT_CLIENT_ID")
	c.TopicReadings = v.GetString("TOPIC_READINGS")

	// Web Server
	if c.WebServerPort, err = parseInt(v, "WEB_SERVER_PORT"); err != nil {
		return err
	}
	return nil
}

// validate checks value ranges and required fields.
func (c *Config) validate() error {
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %v", c.PollInterval)
	}
	if c.ProximityDebounce < 0 {
		return fmt.Errorf("PROXIMITY_DEBOUNCE must not be negative, got %v", c.ProximityDebounce)
	}
	if c.CPUTempWindow < 1 {
		return fmt.Errorf("CPU_TEMP_WINDOW must be at least 1, got %d", c.CPUTempWindow)
	}
	if c.TempCompensationFactor == 0 {
		return fmt.Errorf("TEMP_COMPENSATION_FACTOR must not be zero")
	}
	if len(c.CPUTempCommand) == 0 {
		return fmt.Errorf("CPU_TEMP_COMMAND is required")
	}
	if c.BacklightOnHour < 0 || c.BacklightOnHour > 23 {
		return fmt.Errorf("BACKLIGHT_ON_HOUR must be 0-23, got %d", c.BacklightOnHour)
	}
	if c.BacklightOffHour < c.BacklightOnHour || c.BacklightOffHour > 23 {
		return fmt.Errorf("BACKLIGHT_OFF_HOUR must be %d-23, got %d", c.BacklightOnHour, c.BacklightOffHour)
	}
	switch c.DisplayDriver {
	case "st7735":
		if c.DisplaySPIPort == "" {
			return fmt.Errorf("DISPLAY_SPI_PORT is required for the st7735 driver")
		}
	case "png":
		if c.DisplayPNGPath == "" {
			return fmt.Errorf("DISPLAY_PNG_PATH is required for the png driver")
		}
	default:
		return fmt.Errorf("DISPLAY_DRIVER must be st7735 or png, got %q", c.DisplayDriver)
	}
	if c.InfluxAddr != "" && c.InfluxDatabase == "" {
		return fmt.Errorf("INFLUX_DATABASE is required when INFLUX_ADDR is set")
	}
	if c.MQTTBroker != "" && c.TopicReadings == "" {
		return fmt.Errorf("TOPIC_READINGS is required when MQTT_BROKER is set")
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", c.WebServerPort)
	}
	return nil
}

func parseAddr(v *viper.Viper, key string) (uint16, error) {
	s := strings.TrimSpace(v.GetString(key))
	addr, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return uint16(addr), nil
}

func parseInt(v *viper.Viper, key string) (int, error) {
	s := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseFloat(v *viper.Viper, key string) (float64, error) {
	s := strings.TrimSpace(v.GetString(key))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return f, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	s := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return the first call's error.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
