// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package myahrs

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/relabs-tech/myahrs_driver/internal/imu"
)

// SensorID is the id reported with samples from a single board.
const SensorID = 0

// SerialOptions configures a SerialDevice.
type SerialOptions struct {
	Port           string
	Baud           int
	CommandTimeout time.Duration
}

// SerialDevice is a myAHRS+ session over a serial port.
type SerialDevice struct {
	opts    SerialOptions
	handler imu.SampleHandler
	logger  *zap.Logger

	openPort func(serial.OpenOptions) (io.ReadWriteCloser, error)

	mu       sync.Mutex
	port     io.ReadWriteCloser
	stopping bool
	wg       sync.WaitGroup

	// one command in flight at a time
	cmdMu     sync.Mutex
	responses chan Response
}

// NewSerialDevice returns a device that delivers decoded samples to
// handler. Nothing is opened until Start.
func NewSerialDevice(opts SerialOptions, handler imu.SampleHandler, logger *zap.Logger) *SerialDevice {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = time.Second
	}
	return &SerialDevice{
		opts:      opts,
		handler:   handler,
		logger:    logger.Named("myahrs"),
		openPort:  serial.Open,
		responses: make(chan Response, 8),
	}
}

// Start opens the serial port and starts the reader goroutine.
func (d *SerialDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port != nil {
		return nil
	}

	serialOpts := serial.OpenOptions{
		PortName:              d.opts.Port,
		BaudRate:              uint(d.opts.Baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := d.openPort(serialOpts)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.opts.Port, err)
	}
	d.port = port
	d.stopping = false
	d.logger.Info("serial port opened", zap.String("port", d.opts.Port), zap.Int("baud", d.opts.Baud))

	d.wg.Add(1)
	go d.readLoop(port)
	return nil
}

func (d *SerialDevice) BinaryDataFormat(format string) error {
	return d.command(cmdBinaryOut, normalizeArg(format))
}

func (d *SerialDevice) Divider(divider string) error {
	return d.command(cmdDivider, normalizeArg(divider))
}

func (d *SerialDevice) Mode(mode string) error {
	return d.command(cmdMode, normalizeArg(mode))
}

// Stop closes the port and waits for the reader goroutine.
func (d *SerialDevice) Stop() error {
	d.mu.Lock()
	port := d.port
	d.port = nil
	d.stopping = true
	d.mu.Unlock()

	if port == nil {
		return nil
	}
	err := port.Close()
	d.wg.Wait()
	return err
}

// command writes one command and waits for its response.
func (d *SerialDevice) command(name, arg string) error {
	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	d.mu.Lock()
	port := d.port
	d.mu.Unlock()
	if port == nil {
		return ErrNotStarted
	}

	// drop responses nobody waited for
	for len(d.responses) > 0 {
		<-d.responses
	}

	line := FormatCommand(name, arg)
	d.logger.Debug("command", zap.String("line", strings.TrimSpace(line)))
	if _, err := io.WriteString(port, line); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	timeout := time.NewTimer(d.opts.CommandTimeout)
	defer timeout.Stop()

	for {
		select {
		case r := <-d.responses:
			if r.Name != name {
				continue
			}
			if !r.OK() {
				return fmt.Errorf("%w: %s,%s", ErrRejected, name, strings.Join(append([]string{r.Status}, r.Detail...), ","))
			}
			return nil
		case <-timeout.C:
			return fmt.Errorf("%w: %s after %s", ErrTimeout, name, d.opts.CommandTimeout)
		}
	}
}

func (d *SerialDevice) readLoop(port io.Reader) {
	defer d.wg.Done()

	var sp splitter
	buf := make([]byte, 1024)
	for {
		n, err := port.Read(buf)
		for _, b := range buf[:n] {
			ev, ok := sp.feed(b)
			if !ok {
				continue
			}
			if ev.frame != nil {
				d.handleFrame(ev.frame)
			} else {
				d.handleLine(ev.line)
			}
		}
		if err != nil {
			d.mu.Lock()
			stopping := d.stopping
			d.mu.Unlock()
			if !stopping && !errors.Is(err, io.EOF) {
				d.logger.Warn("serial read failed", zap.Error(err))
			}
			return
		}
	}
}

func (d *SerialDevice) handleFrame(frame []byte) {
	s, err := DecodeEulerIMU(frame)
	if err != nil {
		d.logger.Debug("dropping frame", zap.Error(err))
		return
	}
	d.handler.OnSample(SensorID, s)
}

func (d *SerialDevice) handleLine(line string) {
	if !strings.HasPrefix(line, "~") {
		// ASCII data and echoes are not used in binary mode
		return
	}
	r, err := ParseResponse(line)
	if err != nil {
		d.logger.Debug("dropping response", zap.Error(err))
		return
	}
	select {
	case d.responses <- r:
	default:
		d.logger.Debug("response queue full", zap.String("cmd", r.Name))
	}
}
