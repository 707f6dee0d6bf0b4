// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package convert turns raw myAHRS+ samples into standard units and the
// messages published for them.
package convert

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/myahrs_driver/internal/imu"
	"github.com/relabs-tech/myahrs_driver/internal/msgs"
	"github.com/relabs-tech/myahrs_driver/internal/orientation"
)

const (
	StandardGravity   = 9.80665         // g to m/s²
	DegToRad          = math.Pi / 180.0 // deg/s to rad/s
	MicroTeslaToTesla = 1e-6            // µT to T
)

// Transform tree published alongside every sample.
const (
	ParentFrameID = "imu_base"
	ChildFrameID  = "imu"
)

// TransformOffset is the translation from ParentFrameID to ChildFrameID.
var TransformOffset = r3.Vector{X: 0, Y: 0, Z: 0.1}

// Reading is a sample expressed in standard units.
type Reading struct {
	Orientation        quat.Number
	LinearAcceleration r3.Vector // m/s²
	AngularVelocity    r3.Vector // rad/s
	MagneticField      r3.Vector // T
}

// Convert applies the unit and frame conversion to one sample.
func Convert(s imu.Sample) Reading {
	roll, pitch, yaw := orientation.DeviceToBody(s.Euler)
	d := s.IMU

	return Reading{
		Orientation: orientation.QuaternionFromRPY(roll, pitch, yaw),
		LinearAcceleration: r3.Vector{
			X: d.Ax * StandardGravity,
			Y: d.Ay * StandardGravity,
			Z: d.Az * StandardGravity,
		},
		AngularVelocity: r3.Vector{
			X: d.Gx * DegToRad,
			Y: d.Gy * DegToRad,
			Z: d.Gz * DegToRad,
		},
		MagneticField: r3.Vector{
			X: d.Mx * MicroTeslaToTesla,
			Y: d.My * MicroTeslaToTesla,
			Z: d.Mz * MicroTeslaToTesla,
		},
	}
}

// Options configures the message side of a Converter.
type Options struct {
	FrameID string

	LinearAccelerationStddev float64
	AngularVelocityStddev    float64
	MagneticFieldStddev      float64
	OrientationStddev        float64
}

// Messages is everything emitted for one sample.
type Messages struct {
	Imu       msgs.Imu
	Mag       msgs.MagneticField
	Transform msgs.TransformStamped
}

// Converter builds stamped messages from samples. It keeps a running
// header sequence and is not safe for concurrent use; the driver calls it
// under the mailbox lock.
type Converter struct {
	frameID string

	orientationCov msgs.Covariance
	angularCov     msgs.Covariance
	linearCov      msgs.Covariance
	magCov         msgs.Covariance

	seq uint32
	now func() time.Time
}

// NewConverter returns a Converter stamping messages with the wall clock.
func NewConverter(opts Options) *Converter {
	return &Converter{
		frameID:        opts.FrameID,
		orientationCov: msgs.DiagonalCovariance(opts.OrientationStddev),
		angularCov:     msgs.DiagonalCovariance(opts.AngularVelocityStddev),
		linearCov:      msgs.DiagonalCovariance(opts.LinearAccelerationStddev),
		magCov:         msgs.DiagonalCovariance(opts.MagneticFieldStddev),
		now:            time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (c *Converter) WithClock(now func() time.Time) *Converter {
	c.now = now
	return c
}

// Messages converts s and wraps it in messages stamped with the current
// time.
func (c *Converter) Messages(s imu.Sample) Messages {
	r := Convert(s)
	stamp := msgs.NewTime(c.now())
	rotation := msgs.NewQuaternion(r.Orientation)

	header := msgs.Header{Seq: c.seq, Stamp: stamp, FrameID: c.frameID}
	c.seq++

	return Messages{
		Imu: msgs.Imu{
			Header:                       header,
			Orientation:                  rotation,
			OrientationCovariance:        c.orientationCov,
			AngularVelocity:              msgs.NewVector3(r.AngularVelocity),
			AngularVelocityCovariance:    c.angularCov,
			LinearAcceleration:           msgs.NewVector3(r.LinearAcceleration),
			LinearAccelerationCovariance: c.linearCov,
		},
		Mag: msgs.MagneticField{
			Header:                  header,
			MagneticField:           msgs.NewVector3(r.MagneticField),
			MagneticFieldCovariance: c.magCov,
		},
		Transform: msgs.TransformStamped{
			Header:       msgs.Header{Seq: header.Seq, Stamp: stamp, FrameID: ParentFrameID},
			ChildFrameID: ChildFrameID,
			Transform: msgs.Transform{
				Translation: msgs.NewVector3(TransformOffset),
				Rotation:    rotation,
			},
		},
	}
}
