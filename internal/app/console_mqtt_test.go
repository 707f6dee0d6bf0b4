// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relabs-tech/myahrs_driver/internal/bus"
	"github.com/relabs-tech/myahrs_driver/internal/convert"
	"github.com/relabs-tech/myahrs_driver/internal/imu"
)

// loopback delivers every publish to the subscribers of its topic.
type loopback struct {
	handlers map[string][]func([]byte)
}

func (l *loopback) Publish(topic string, payload []byte) error {
	for _, h := range l.handlers[topic] {
		h(payload)
	}
	return nil
}

func (l *loopback) Subscribe(topic string, handler func([]byte)) error {
	if l.handlers == nil {
		l.handlers = map[string][]func([]byte){}
	}
	l.handlers[topic] = append(l.handlers[topic], handler)
	return nil
}

func (l *loopback) Close() {}

func TestConsolePrintsDriverOutput(t *testing.T) {
	topics := bus.Topics{IMU: "imu/data", Mag: "imu/mag", TF: "tf"}
	client := &loopback{}
	var out bytes.Buffer

	require.NoError(t, SubscribeConsole(client, topics, &out, zap.NewNop()))

	conv := convert.NewConverter(convert.Options{FrameID: "imu_link"}).
		WithClock(func() time.Time { return fixedNow })
	drv := NewDriver(conv, bus.NewChannels(client, topics), newTestMetrics(), zap.NewNop())
	drv.OnSample(0, imu.Sample{
		Euler: imu.EulerAngle{Roll: 90},
		IMU:   imu.Data{Mx: 2, My: 5, Mz: 9},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[IMU ] imu_link #0"))
	assert.Contains(t, lines[0], "ROLL=  90.00")
	assert.Contains(t, lines[1], "mx=2.000e-06 my=5.000e-06 mz=9.000e-06 T")
	assert.Contains(t, lines[2], "imu_base -> imu  t=(0.00, 0.00, 0.10)")
}

func TestConsoleSkipsBadPayload(t *testing.T) {
	topics := bus.Topics{IMU: "imu/data", Mag: "imu/mag", TF: "tf"}
	client := &loopback{}
	var out bytes.Buffer

	require.NoError(t, SubscribeConsole(client, topics, &out, zap.NewNop()))
	require.NoError(t, client.Publish("imu/data", []byte("garbage")))

	assert.Empty(t, out.String())
}
