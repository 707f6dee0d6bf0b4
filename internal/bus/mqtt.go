// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

var ErrTimeout = errors.New("bus: timed out waiting for broker")

// Client is the part of a message bus client the driver needs.
type Client interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte)) error
	Close()
}

// MQTTOptions configures an MQTT connection.
type MQTTOptions struct {
	Broker   string
	ClientID string
	QoS      byte
	Retained bool
	Timeout  time.Duration
}

// MQTT is a Client backed by paho.
type MQTT struct {
	client   mqtt.Client
	qos      byte
	retained bool
	timeout  time.Duration
	logger   *zap.Logger
}

// Connect dials the broker and waits for the session to come up.
func Connect(opts MQTTOptions, logger *zap.Logger) (*MQTT, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	logger = logger.Named("mqtt")

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetConnectTimeout(opts.Timeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("connection lost", zap.Error(err))
		})

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	if !token.WaitTimeout(opts.Timeout) {
		return nil, fmt.Errorf("connect %s: %w", opts.Broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", opts.Broker, err)
	}
	logger.Info("connected", zap.String("broker", opts.Broker), zap.String("client_id", opts.ClientID))

	return &MQTT{
		client:   client,
		qos:      opts.QoS,
		retained: opts.Retained,
		timeout:  opts.Timeout,
		logger:   logger,
	}, nil
}

func (m *MQTT) Publish(topic string, payload []byte) error {
	token := m.client.Publish(topic, m.qos, m.retained, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("publish %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (m *MQTT) Subscribe(topic string, handler func(payload []byte)) error {
	token := m.client.Subscribe(topic, m.qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("subscribe %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	m.logger.Info("subscribed", zap.String("topic", topic))
	return nil
}

// Close disconnects, giving in-flight messages 250ms to drain.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
