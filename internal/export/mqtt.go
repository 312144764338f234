// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// ErrNotConnected is returned when publishing before the broker is reachable.
var ErrNotConnected = errors.New("mqtt client not connected")

// MQTTConfig addresses the broker and topic for reading fan-out.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

// MQTTPublisher publishes each point as retained JSON on one topic.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

// NewMQTTPublisher builds an auto-reconnecting client. Call Connect before
// the first Write.
func NewMQTTPublisher(cfg MQTTConfig, logger *slog.Logger) *MQTTPublisher {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(60 * time.Second).
		SetKeepAlive(30 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	return newMQTTPublisher(mqtt.NewClient(opts), cfg.Topic, logger)
}

func newMQTTPublisher(c mqtt.Client, topic string, logger *slog.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: c, topic: topic, logger: logger}
}

// Connect waits for the first connection, polling so ctx stays honoured.
func (m *MQTTPublisher) Connect(ctx context.Context) error {
	token := m.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (m *MQTTPublisher) Name() string { return "mqtt" }

// Write publishes p on the readings topic with the retain flag set.
func (m *MQTTPublisher) Write(_ context.Context, p Point) error {
	if len(p.Fields) == 0 {
		return ErrEmptyPayload
	}
	if !m.client.IsConnected() {
		return ErrNotConnected
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal point: %w", err)
	}

	token := m.client.Publish(m.topic, 0, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	m.logger.Debug("published readings", "topic", m.topic, "fields", len(p.Fields))
	return nil
}

func (m *MQTTPublisher) Close() error {
	m.client.Disconnect(250)
	return nil
}
