// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/enviro_computer/internal/config"
	"github.com/relabs-tech/enviro_computer/internal/env"
	"github.com/relabs-tech/enviro_computer/internal/export"
)

// RunConsoleMQTT subscribes to the readings topic and prints every point
// to out until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("console: MQTT_BROKER is not set")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID + "-console")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	logger.Info("console: connected to MQTT broker", "broker", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicReadings, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p export.Point
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			logger.Warn("console: readings unmarshal error", "err", err)
			return
		}
		fmt.Fprintln(out, FormatPoint(p))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logger.Info("console: subscribed", "topic", cfg.TopicReadings)

	<-ctx.Done()
	logger.Info("console: shutting down")
	return nil
}

// FormatPoint renders a point as one console line, keys in canonical order.
func FormatPoint(p export.Point) string {
	var sb strings.Builder
	sb.WriteString("[" + p.Time.Format("15:04:05") + "]")
	for _, k := range env.Keys {
		if v, ok := p.Fields[k]; ok {
			fmt.Fprintf(&sb, " %s=%.2f", k, v)
		}
	}
	return sb.String()
}
