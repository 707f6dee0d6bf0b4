// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// EulerAngle holds the attitude reported by the device, in degrees.
type EulerAngle struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Data is one raw inertial reading in device-native units.
type Data struct {
	Ax float64 `json:"ax"` // accel, g
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"` // gyro, deg/s
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`

	Mx float64 `json:"mx"` // magnetometer, µT
	My float64 `json:"my"`
	Mz float64 `json:"mz"`

	Temperature float64 `json:"temp_c"`
}

// Sample represents a single reading cycle from the sensor.
type Sample struct {
	Seq   uint8      `json:"seq"`
	Euler EulerAngle `json:"euler"`
	IMU   Data       `json:"imu"`
}

// SampleHandler receives samples from a device. Implementations are
// called on the device's reader goroutine.
type SampleHandler interface {
	OnSample(sensorID int, s Sample)
}

// SampleHandlerFunc adapts a plain function to SampleHandler.
type SampleHandlerFunc func(sensorID int, s Sample)

func (f SampleHandlerFunc) OnSample(sensorID int, s Sample) {
	f(sensorID, s)
}
