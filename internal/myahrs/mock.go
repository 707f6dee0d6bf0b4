// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package myahrs

import (
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/myahrs_driver/internal/imu"
	"github.com/relabs-tech/myahrs_driver/internal/orientation"
)

// MockDevice accepts every command and, once switched to binary
// continuous mode, delivers synthetic samples at a fixed interval.
type MockDevice struct {
	handler  imu.SampleHandler
	src      orientation.Source
	interval time.Duration

	mu        sync.Mutex
	started   bool
	streaming bool
	seq       uint8
	commands  []string
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewMockDevice returns a mock board driven by the orientation mock source.
func NewMockDevice(handler imu.SampleHandler, interval time.Duration) *MockDevice {
	return &MockDevice{
		handler:  handler,
		src:      orientation.NewMockSource(),
		interval: interval,
	}
}

func (m *MockDevice) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go m.run(m.stop)
	return nil
}

func (m *MockDevice) BinaryDataFormat(format string) error {
	return m.record(cmdBinaryOut, format)
}

func (m *MockDevice) Divider(divider string) error {
	return m.record(cmdDivider, divider)
}

func (m *MockDevice) Mode(mode string) error {
	if err := m.record(cmdMode, mode); err != nil {
		return err
	}
	m.mu.Lock()
	m.streaming = normalizeArg(mode) == ModeBinaryContinuous
	m.mu.Unlock()
	return nil
}

func (m *MockDevice) Stop() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	m.streaming = false
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

// Commands returns the commands received so far, as they would appear
// on the wire.
func (m *MockDevice) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

func (m *MockDevice) record(name, arg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return ErrNotStarted
	}
	m.commands = append(m.commands, name+","+normalizeArg(arg))
	return nil
}

func (m *MockDevice) run(stop <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		streaming := m.streaming
		seq := m.seq
		if streaming {
			m.seq++
		}
		m.mu.Unlock()
		if !streaming {
			continue
		}

		pose, err := m.src.Next()
		if err != nil {
			continue
		}
		s := sampleFromPose(pose)
		s.Seq = seq
		m.handler.OnSample(SensorID, s)
	}
}

// sampleFromPose fakes the readings of a board resting at pose: gravity
// projected onto the sensor axes and a fixed local magnetic field.
func sampleFromPose(p orientation.Pose) imu.Sample {
	roll := p.Roll * math.Pi / 180
	pitch := p.Pitch * math.Pi / 180

	return imu.Sample{
		Euler: imu.EulerAngle{Roll: p.Roll, Pitch: p.Pitch, Yaw: p.Yaw},
		IMU: imu.Data{
			Ax: -math.Sin(pitch),
			Ay: math.Sin(roll) * math.Cos(pitch),
			Az: math.Cos(roll) * math.Cos(pitch),
			Mx: 22.5,
			My: 1.8,
			Mz: -41.3,

			Temperature: 25,
		},
	}
}
