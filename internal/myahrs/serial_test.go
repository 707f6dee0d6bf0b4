// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package myahrs

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relabs-tech/myahrs_driver/internal/imu"
)

// pipePort is the driver's end of an in-memory serial line.
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipePort) Close() error {
	p.r.Close()
	return p.w.Close()
}

// board simulates the firmware end of the line.
type board struct {
	reject string // command name answered with ER
	silent bool   // never answer
	frames [][]byte
	seen   chan string
}

func (b *board) serve(r io.Reader, w io.Writer) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		b.seen <- line
		if b.silent {
			continue
		}

		body, _, _ := strings.Cut(strings.TrimPrefix(line, "@"), "*")
		name, _, _ := strings.Cut(body, ",")
		status := "OK"
		if name == b.reject {
			status = "ER,invalid"
		}
		resp := FormatCommand(name, status)
		if _, err := io.WriteString(w, "~"+resp[1:]); err != nil {
			return
		}
		if name == cmdMode && status == "OK" {
			for _, f := range b.frames {
				if _, err := w.Write(f); err != nil {
					return
				}
			}
		}
	}
}

// connect wires a SerialDevice to b and returns the collected samples.
func connect(t *testing.T, b *board) (*SerialDevice, <-chan imu.Sample) {
	t.Helper()

	samples := make(chan imu.Sample, 16)
	handler := imu.SampleHandlerFunc(func(id int, s imu.Sample) {
		assert.Equal(t, SensorID, id)
		samples <- s
	})

	dev := NewSerialDevice(SerialOptions{
		Port:           "/dev/ttyTEST0",
		Baud:           115200,
		CommandTimeout: 200 * time.Millisecond,
	}, handler, zap.NewNop())

	dev.openPort = func(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
		assert.Equal(t, "/dev/ttyTEST0", opts.PortName)
		assert.Equal(t, uint(115200), opts.BaudRate)

		toDevR, toDevW := io.Pipe()
		toBoardR, toBoardW := io.Pipe()
		go b.serve(toBoardR, toDevW)
		return &pipePort{r: toDevR, w: toBoardW}, nil
	}

	t.Cleanup(func() { _ = dev.Stop() })
	return dev, samples
}

func drain(ch chan string) []string {
	var out []string
	for {
		select {
		case s := <-ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestSerialDeviceInitializeAndStream(t *testing.T) {
	b := &board{
		frames: [][]byte{encodeEulerIMU(testSample)},
		seen:   make(chan string, 8),
	}
	dev, samples := connect(t, b)

	require.NoError(t, Initialize(dev))

	select {
	case s := <-samples:
		assert.Equal(t, testSample, s)
	case <-time.After(2 * time.Second):
		t.Fatal("no sample delivered")
	}

	seen := drain(b.seen)
	require.Len(t, seen, 3)
	assert.True(t, strings.HasPrefix(seen[0], "@bin_out,EULER,IMU*"), seen[0])
	assert.True(t, strings.HasPrefix(seen[1], "@divider,1*"), seen[1])
	assert.True(t, strings.HasPrefix(seen[2], "@mode,BC*"), seen[2])
}

func TestSerialDeviceRejectedCommandStopsSequence(t *testing.T) {
	b := &board{reject: cmdDivider, seen: make(chan string, 8)}
	dev, _ := connect(t, b)

	err := Initialize(dev)
	require.ErrorIs(t, err, ErrRejected)
	assert.ErrorContains(t, err, "divider,ER,invalid")

	require.NoError(t, dev.Stop())
	seen := drain(b.seen)
	require.Len(t, seen, 2)
	assert.True(t, strings.HasPrefix(seen[1], "@divider,1*"))
}

func TestSerialDeviceCommandTimeout(t *testing.T) {
	b := &board{silent: true, seen: make(chan string, 8)}
	dev, _ := connect(t, b)

	err := Initialize(dev)
	require.ErrorIs(t, err, ErrTimeout)
	assert.ErrorContains(t, err, "binary data format")
}

func TestSerialDeviceOpenFailure(t *testing.T) {
	dev := NewSerialDevice(SerialOptions{Port: "/dev/missing"}, imu.SampleHandlerFunc(func(int, imu.Sample) {}), zap.NewNop())
	opened := errors.New("no such device")
	dev.openPort = func(serial.OpenOptions) (io.ReadWriteCloser, error) { return nil, opened }

	err := Initialize(dev)
	require.ErrorIs(t, err, opened)
	assert.ErrorContains(t, err, "start: open /dev/missing")
}

func TestSerialDeviceCommandBeforeStart(t *testing.T) {
	dev := NewSerialDevice(SerialOptions{}, imu.SampleHandlerFunc(func(int, imu.Sample) {}), zap.NewNop())
	assert.ErrorIs(t, dev.Mode(ModeBinaryContinuous), ErrNotStarted)
	assert.NoError(t, dev.Stop())
}
