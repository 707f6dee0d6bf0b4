// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package myahrs talks to a WithRobot myAHRS+ board: the start-up command
// sequence, a serial session and a mock board for running without
// hardware.
package myahrs

import (
	"errors"
	"fmt"
)

// Arguments of the fixed start-up sequence.
const (
	BinaryFormatEulerIMU = "EULER, IMU" // Euler angles plus accel/gyro/mag
	Divider100Hz         = "1"          // 100 Hz output
	ModeBinaryContinuous = "BC"         // binary, continuous
)

var (
	ErrNotStarted  = errors.New("myahrs: device not started")
	ErrRejected    = errors.New("myahrs: command rejected")
	ErrTimeout     = errors.New("myahrs: command timed out")
	ErrBadChecksum = errors.New("myahrs: bad checksum")
	ErrShortFrame  = errors.New("myahrs: short frame")
)

// Device is the command surface of a myAHRS+ session. Samples are
// delivered to the imu.SampleHandler the device was built with, on the
// device's own goroutine, once the board is streaming.
type Device interface {
	// Start opens the connection.
	Start() error
	// BinaryDataFormat selects the fields carried by binary frames.
	BinaryDataFormat(format string) error
	// Divider sets the output rate divider.
	Divider(divider string) error
	// Mode selects the transmission mode.
	Mode(mode string) error
	// Stop closes the connection and waits for the reader to exit.
	Stop() error
}

// Initialize opens dev and configures it for EULER+IMU binary output at
// 100 Hz. The steps run in a fixed order and the first failure aborts the
// rest.
func Initialize(dev Device) error {
	if err := dev.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := dev.BinaryDataFormat(BinaryFormatEulerIMU); err != nil {
		return fmt.Errorf("binary data format %q: %w", BinaryFormatEulerIMU, err)
	}
	if err := dev.Divider(Divider100Hz); err != nil {
		return fmt.Errorf("divider %q: %w", Divider100Hz, err)
	}
	if err := dev.Mode(ModeBinaryContinuous); err != nil {
		return fmt.Errorf("mode %q: %w", ModeBinaryContinuous, err)
	}
	return nil
}
