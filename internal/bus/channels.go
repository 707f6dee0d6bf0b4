// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"encoding/json"
	"fmt"

	"github.com/relabs-tech/myahrs_driver/internal/msgs"
)

// Topics names the three output channels.
type Topics struct {
	IMU string
	Mag string
	TF  string
}

// Channels publishes typed messages as JSON on their topics.
type Channels struct {
	client Client
	topics Topics
}

func NewChannels(client Client, topics Topics) *Channels {
	return &Channels{client: client, topics: topics}
}

func (c *Channels) PublishImu(m msgs.Imu) error {
	return publishJSON(c.client, c.topics.IMU, m)
}

func (c *Channels) PublishMag(m msgs.MagneticField) error {
	return publishJSON(c.client, c.topics.Mag, m)
}

// SendTransform broadcasts a transform on the TF topic.
func (c *Channels) SendTransform(m msgs.TransformStamped) error {
	return publishJSON(c.client, c.topics.TF, m)
}

func publishJSON(client Client, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	return client.Publish(topic, payload)
}

// SubscribeJSON decodes every message on topic into a T and hands it to
// fn. Payloads that do not decode go to onErr.
func SubscribeJSON[T any](client Client, topic string, fn func(T), onErr func(error)) error {
	return client.Subscribe(topic, func(payload []byte) {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			onErr(fmt.Errorf("unmarshal %s: %w", topic, err))
			return
		}
		fn(v)
	})
}
