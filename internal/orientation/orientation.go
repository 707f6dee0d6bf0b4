// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/myahrs_driver/internal/imu"
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Pose is a roll/pitch/yaw attitude in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide poses over time.
type Source interface {
	Next() (Pose, error)
}

// QuaternionFromRPY builds the rotation for fixed-axis roll, pitch, yaw
// (radians), applied in that order about X, Y then Z.
//
// The result is laid out as Real=w, Imag=x, Jmag=y, Kmag=z.
func QuaternionFromRPY(roll, pitch, yaw float64) quat.Number {
	sr, cr := math.Sincos(roll / 2)
	sp, cp := math.Sincos(pitch / 2)
	sy, cy := math.Sincos(yaw / 2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// DeviceToBody maps the myAHRS+ Euler angles (degrees) onto the
// x forward, y left, z up convention, in radians. The board's y and z
// axes point the other way, so pitch and yaw change sign.
func DeviceToBody(e imu.EulerAngle) (roll, pitch, yaw float64) {
	roll = e.Roll * degToRad
	pitch = -e.Pitch * degToRad
	yaw = -e.Yaw * degToRad
	return roll, pitch, yaw
}

// PoseFromQuaternion is the inverse of QuaternionFromRPY, in degrees.
func PoseFromQuaternion(q quat.Number) Pose {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	// numerical noise can push |sinp| just past 1 at the poles
	sinp = math.Max(-1, math.Min(1, sinp))
	pitch := math.Asin(sinp)

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Pose{
		Roll:  roll * radToDeg,
		Pitch: pitch * radToDeg,
		Yaw:   yaw * radToDeg,
	}
}
