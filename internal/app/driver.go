// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/myahrs_driver/internal/bus"
	"github.com/relabs-tech/myahrs_driver/internal/config"
	"github.com/relabs-tech/myahrs_driver/internal/convert"
	"github.com/relabs-tech/myahrs_driver/internal/imu"
	"github.com/relabs-tech/myahrs_driver/internal/metrics"
	"github.com/relabs-tech/myahrs_driver/internal/msgs"
	"github.com/relabs-tech/myahrs_driver/internal/myahrs"
)

// LoopRate is the rate of the main loop.
const LoopRate = 100 // Hz

// Publisher is where converted messages go.
type Publisher interface {
	PublishImu(msgs.Imu) error
	PublishMag(msgs.MagneticField) error
	SendTransform(msgs.TransformStamped) error
}

// Driver receives samples from the device, keeps the latest one and
// publishes its conversion. It implements imu.SampleHandler.
type Driver struct {
	mailbox imu.Mailbox
	conv    *convert.Converter
	out     Publisher
	metrics *metrics.DriverMetrics
	logger  *zap.Logger

	lastMu   sync.RWMutex
	last     convert.Messages
	haveLast bool
}

func NewDriver(conv *convert.Converter, out Publisher, m *metrics.DriverMetrics, logger *zap.Logger) *Driver {
	return &Driver{
		conv:    conv,
		out:     out,
		metrics: m,
		logger:  logger.Named("driver"),
	}
}

// OnSample stores s and publishes it before the next sample can be
// stored. Runs on the device goroutine.
func (d *Driver) OnSample(sensorID int, s imu.Sample) {
	d.metrics.SamplesReceived.Inc()
	d.mailbox.PutAndThen(s, d.publish)
}

// publish runs with the mailbox locked.
func (d *Driver) publish(s imu.Sample) {
	m := d.conv.Messages(s)

	if err := d.out.PublishImu(m.Imu); err != nil {
		d.publishFailed("imu", err)
	}
	if err := d.out.PublishMag(m.Mag); err != nil {
		d.publishFailed("mag", err)
	}
	if err := d.out.SendTransform(m.Transform); err != nil {
		d.publishFailed("tf", err)
	}

	d.lastMu.Lock()
	d.last = m
	d.haveLast = true
	d.lastMu.Unlock()
}

func (d *Driver) publishFailed(channel string, err error) {
	d.metrics.PublishErrors.WithLabelValues(channel).Inc()
	d.logger.Warn("publish failed", zap.String("channel", channel), zap.Error(err))
}

// Sample returns a copy of the most recent raw sample.
func (d *Driver) Sample() (imu.Sample, bool) {
	return d.mailbox.Latest()
}

// Latest returns the messages built from the most recent sample.
func (d *Driver) Latest() (convert.Messages, bool) {
	d.lastMu.RLock()
	defer d.lastMu.RUnlock()
	return d.last, d.haveLast
}

// Serve configures dev and then runs the main loop until ctx is done.
// A configuration failure is returned as is and dev is left as it was.
func Serve(ctx context.Context, dev myahrs.Device, logger *zap.Logger) error {
	if err := myahrs.Initialize(dev); err != nil {
		return err
	}
	return spin(ctx, dev, logger)
}

// spin runs the main loop of a streaming device and stops it on exit.
func spin(ctx context.Context, dev myahrs.Device, logger *zap.Logger) error {
	logger.Info("device streaming",
		zap.String("format", myahrs.BinaryFormatEulerIMU),
		zap.String("divider", myahrs.Divider100Hz),
		zap.String("mode", myahrs.ModeBinaryContinuous))

	ticker := time.NewTicker(time.Second / LoopRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return dev.Stop()
		case <-ticker.C:
		}
	}
}

// ConverterOptions maps the parameter file onto converter options.
func ConverterOptions(cfg *config.Config) convert.Options {
	return convert.Options{
		FrameID:                  cfg.FrameID,
		LinearAccelerationStddev: cfg.LinearAccelerationStddev,
		AngularVelocityStddev:    cfg.AngularVelocityStddev,
		MagneticFieldStddev:      cfg.MagneticFieldStddev,
		OrientationStddev:        cfg.OrientationStddev,
	}
}

// Replaced in tests.
var (
	dialBus = func(opts bus.MQTTOptions, logger *zap.Logger) (bus.Client, error) {
		return bus.Connect(opts, logger)
	}
	newDevice = defaultDevice
)

func defaultDevice(cfg *config.Config, useMock bool, handler imu.SampleHandler, logger *zap.Logger) myahrs.Device {
	if useMock {
		logger.Info("using mock device")
		return myahrs.NewMockDevice(handler, time.Second/LoopRate)
	}
	logger.Info("opening device", zap.String("port", cfg.Port), zap.Int("baud", cfg.Baud))
	return myahrs.NewSerialDevice(myahrs.SerialOptions{
		Port:           cfg.Port,
		Baud:           cfg.Baud,
		CommandTimeout: time.Duration(cfg.CommandTimeoutMS) * time.Millisecond,
	}, handler, logger)
}

// RunDriver connects to the broker, configures the board and publishes
// its samples until ctx is cancelled. With useMock a synthetic board
// replaces the serial port. If the board cannot be configured the error
// is returned straight away, with nothing closed or stopped.
func RunDriver(ctx context.Context, cfg *config.Config, logger *zap.Logger, useMock bool) error {
	for _, f := range cfg.Fallbacks {
		logger.Warn("invalid parameter value, using default", zap.String("param", f))
	}
	for _, k := range cfg.Unknown {
		logger.Warn("unknown parameter, ignoring", zap.String("param", k))
	}
	if cfg.Autocalibrate {
		logger.Warn("autocalibrate is set but not supported, ignoring")
	}

	reg := metrics.NewRegistry()
	m := metrics.NewDriverMetrics(reg)

	client, err := dialBus(bus.MQTTOptions{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Retained: true,
	}, logger)
	if err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	channels := bus.NewChannels(client, bus.Topics{
		IMU: cfg.TopicIMU,
		Mag: cfg.TopicMag,
		TF:  cfg.TopicTF,
	})
	drv := NewDriver(convert.NewConverter(ConverterOptions(cfg)), channels, m, logger)
	dev := instrument(newDevice(cfg, useMock, drv, logger), m)

	if err := myahrs.Initialize(dev); err != nil {
		return err
	}
	defer client.Close()

	if cfg.MonitorAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MonitorAddr,
			Handler:           NewMonitor(drv, reg, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("monitor listening", zap.String("addr", cfg.MonitorAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("monitor stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	return spin(ctx, dev, logger)
}

// instrumentedDevice counts configuration commands by result.
type instrumentedDevice struct {
	myahrs.Device
	metrics *metrics.DriverMetrics
}

func instrument(dev myahrs.Device, m *metrics.DriverMetrics) myahrs.Device {
	return &instrumentedDevice{Device: dev, metrics: m}
}

func (d *instrumentedDevice) count(cmd string, err error) error {
	result := "ok"
	if err != nil {
		result = "error"
	}
	d.metrics.Commands.WithLabelValues(cmd, result).Inc()
	return err
}

func (d *instrumentedDevice) BinaryDataFormat(format string) error {
	return d.count("bin_out", d.Device.BinaryDataFormat(format))
}

func (d *instrumentedDevice) Divider(divider string) error {
	return d.count("divider", d.Device.Divider(divider))
}

func (d *instrumentedDevice) Mode(mode string) error {
	return d.count("mode", d.Device.Mode(mode))
}
