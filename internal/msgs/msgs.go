// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package msgs holds the message shapes published on the bus. Field names
// and JSON keys follow the sensor_msgs and geometry_msgs conventions so
// existing ROS tooling can consume them after a JSON bridge.
package msgs

import (
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Time is a wall clock stamp split into seconds and nanoseconds.
type Time struct {
	Secs  int64 `json:"secs"`
	Nsecs int64 `json:"nsecs"`
}

// NewTime converts t to a Time.
func NewTime(t time.Time) Time {
	return Time{Secs: t.Unix(), Nsecs: int64(t.Nanosecond())}
}

// Time converts back to a time.Time.
func (t Time) Time() time.Time {
	return time.Unix(t.Secs, t.Nsecs)
}

type Header struct {
	Seq     uint32 `json:"seq"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewVector3 converts an r3.Vector.
func NewVector3(v r3.Vector) Vector3 {
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// NewQuaternion converts a gonum quaternion (Real=w).
func NewQuaternion(q quat.Number) Quaternion {
	return Quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real}
}

// Number converts back to a gonum quaternion.
func (q Quaternion) Number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Covariance is a row-major 3x3 matrix. All zeros means unknown.
type Covariance [9]float64

// DiagonalCovariance returns a covariance with stddev² on the diagonal.
func DiagonalCovariance(stddev float64) Covariance {
	v := stddev * stddev
	return Covariance{
		v, 0, 0,
		0, v, 0,
		0, 0, v,
	}
}

// Imu mirrors sensor_msgs/Imu.
type Imu struct {
	Header                       Header     `json:"header"`
	Orientation                  Quaternion `json:"orientation"`
	OrientationCovariance        Covariance `json:"orientation_covariance"`
	AngularVelocity              Vector3    `json:"angular_velocity"`
	AngularVelocityCovariance    Covariance `json:"angular_velocity_covariance"`
	LinearAcceleration           Vector3    `json:"linear_acceleration"`
	LinearAccelerationCovariance Covariance `json:"linear_acceleration_covariance"`
}

// MagneticField mirrors sensor_msgs/MagneticField.
type MagneticField struct {
	Header                  Header     `json:"header"`
	MagneticField           Vector3    `json:"magnetic_field"`
	MagneticFieldCovariance Covariance `json:"magnetic_field_covariance"`
}

type Transform struct {
	Translation Vector3    `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

// TransformStamped mirrors geometry_msgs/TransformStamped. Header.FrameID
// is the parent frame.
type TransformStamped struct {
	Header       Header    `json:"header"`
	ChildFrameID string    `json:"child_frame_id"`
	Transform    Transform `json:"transform"`
}
