// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/myahrs_driver/internal/msgs"
)

// memClient is an in-process Client that loops publishes back to
// subscribers.
type memClient struct {
	published map[string][][]byte
	handlers  map[string][]func([]byte)
	fail      error
}

func newMemClient() *memClient {
	return &memClient{
		published: map[string][][]byte{},
		handlers:  map[string][]func([]byte){},
	}
}

func (m *memClient) Publish(topic string, payload []byte) error {
	if m.fail != nil {
		return m.fail
	}
	m.published[topic] = append(m.published[topic], payload)
	for _, h := range m.handlers[topic] {
		h(payload)
	}
	return nil
}

func (m *memClient) Subscribe(topic string, handler func([]byte)) error {
	m.handlers[topic] = append(m.handlers[topic], handler)
	return nil
}

func (m *memClient) Close() {}

var topics = Topics{IMU: "imu/data", Mag: "imu/mag", TF: "tf"}

func TestChannelsRouteByType(t *testing.T) {
	c := newMemClient()
	ch := NewChannels(c, topics)

	require.NoError(t, ch.PublishImu(msgs.Imu{Header: msgs.Header{FrameID: "a"}}))
	require.NoError(t, ch.PublishMag(msgs.MagneticField{Header: msgs.Header{FrameID: "b"}}))
	require.NoError(t, ch.SendTransform(msgs.TransformStamped{ChildFrameID: "imu"}))

	require.Len(t, c.published["imu/data"], 1)
	require.Len(t, c.published["imu/mag"], 1)
	require.Len(t, c.published["tf"], 1)

	var tf msgs.TransformStamped
	require.NoError(t, json.Unmarshal(c.published["tf"][0], &tf))
	assert.Equal(t, "imu", tf.ChildFrameID)
}

func TestChannelsPropagatePublishError(t *testing.T) {
	c := newMemClient()
	c.fail = errors.New("broker gone")

	err := NewChannels(c, topics).PublishMag(msgs.MagneticField{})
	assert.EqualError(t, err, "broker gone")
}

func TestSubscribeJSON(t *testing.T) {
	c := newMemClient()

	var got []msgs.Imu
	var errs []error
	require.NoError(t, SubscribeJSON(c, "imu/data",
		func(m msgs.Imu) { got = append(got, m) },
		func(err error) { errs = append(errs, err) },
	))

	require.NoError(t, NewChannels(c, topics).PublishImu(msgs.Imu{Header: msgs.Header{Seq: 7}}))
	require.NoError(t, c.Publish("imu/data", []byte("{not json")))

	require.Len(t, got, 1)
	assert.Equal(t, uint32(7), got[0].Header.Seq)
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "unmarshal imu/data")
}
