// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniform builds a sample whose every field carries the same value, so a
// torn read shows up as a mix of values.
func uniform(v float64) Sample {
	return Sample{
		Seq:   uint8(int(v) % 256),
		Euler: EulerAngle{Roll: v, Pitch: v, Yaw: v},
		IMU: Data{
			Ax: v, Ay: v, Az: v,
			Gx: v, Gy: v, Gz: v,
			Mx: v, My: v, Mz: v,
			Temperature: v,
		},
	}
}

func isUniform(s Sample) bool {
	v := s.Euler.Roll
	fields := []float64{
		s.Euler.Pitch, s.Euler.Yaw,
		s.IMU.Ax, s.IMU.Ay, s.IMU.Az,
		s.IMU.Gx, s.IMU.Gy, s.IMU.Gz,
		s.IMU.Mx, s.IMU.My, s.IMU.Mz,
		s.IMU.Temperature,
	}
	for _, f := range fields {
		if f != v {
			return false
		}
	}
	return s.Seq == uint8(int(v)%256)
}

func TestMailboxEmpty(t *testing.T) {
	var m Mailbox
	_, ok := m.Latest()
	assert.False(t, ok)
}

func TestMailboxLatestReturnsCopy(t *testing.T) {
	var m Mailbox
	m.Put(uniform(3))

	got, ok := m.Latest()
	require.True(t, ok)
	got.Euler.Roll = 99

	again, _ := m.Latest()
	assert.Equal(t, 3.0, again.Euler.Roll)
}

func TestMailboxReplacesPrevious(t *testing.T) {
	var m Mailbox
	m.Put(uniform(1))
	m.Put(uniform(2))

	got, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, uniform(2), got)
}

func TestMailboxPutAndThenSeesStoredSample(t *testing.T) {
	var m Mailbox
	var seen Sample
	m.PutAndThen(uniform(7), func(s Sample) { seen = s })
	assert.Equal(t, uniform(7), seen)

	got, _ := m.Latest()
	assert.Equal(t, uniform(7), got)
}

func TestMailboxNoTornReads(t *testing.T) {
	var m Mailbox
	m.Put(uniform(0))

	const writes = 20000
	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 1; i <= writes; i++ {
			if i%2 == 0 {
				m.Put(uniform(float64(i)))
			} else {
				m.PutAndThen(uniform(float64(i)), func(Sample) {})
			}
		}
	}()

	var torn atomic.Int64
	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				s, _ := m.Latest()
				if !isUniform(s) {
					torn.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, torn.Load())
	last, _ := m.Latest()
	assert.Equal(t, uniform(writes), last)
}
