// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package myahrs

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/relabs-tech/myahrs_driver/internal/imu"
)

// Binary frames are wrapped as DLE STX ... DLE ETX; a DLE inside the
// payload is sent twice.
const (
	STX = 0x02
	ETX = 0x03
	DLE = 0x10

	maxFrameLen = 512
	maxLineLen  = 256
)

// EULER+IMU payload: sequence byte, 13 little-endian float32 values
// (roll, pitch, yaw, ax, ay, az, gx, gy, gz, mx, my, mz, temperature) and
// a CRC16-CCITT over everything before it.
const (
	eulerIMUValues  = 13
	eulerIMUBodyLen = 1 + eulerIMUValues*4
	eulerIMULen     = eulerIMUBodyLen + 2
)

type splitState int

const (
	stateIdle splitState = iota
	stateText
	stateFrameStart // saw DLE outside a frame
	stateFrame
	stateFrameEscape // saw DLE inside a frame
)

// splitter separates the board's mixed output into ASCII lines (responses
// and text data) and unstuffed binary frames. It is fed one byte at a time
// and is not safe for concurrent use.
type splitter struct {
	state splitState
	line  []byte
	frame []byte
}

// event is produced when a line or a frame is complete.
type event struct {
	line  string
	frame []byte
}

// feed consumes b and returns a completed line or frame, if any.
func (s *splitter) feed(b byte) (event, bool) {
	switch s.state {
	case stateIdle:
		switch b {
		case DLE:
			s.state = stateFrameStart
		case '~', '$', '@':
			s.line = append(s.line[:0], b)
			s.state = stateText
		}

	case stateText:
		if b == '\n' {
			s.state = stateIdle
			line := string(s.line)
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			return event{line: line}, true
		}
		if len(s.line) >= maxLineLen {
			s.state = stateIdle
			return event{}, false
		}
		s.line = append(s.line, b)

	case stateFrameStart:
		if b == STX {
			s.frame = s.frame[:0]
			s.state = stateFrame
		} else {
			s.state = stateIdle
		}

	case stateFrame:
		if b == DLE {
			s.state = stateFrameEscape
			return event{}, false
		}
		s.appendFrame(b)

	case stateFrameEscape:
		switch b {
		case DLE:
			s.state = stateFrame
			s.appendFrame(DLE)
		case ETX:
			s.state = stateIdle
			frame := make([]byte, len(s.frame))
			copy(frame, s.frame)
			return event{frame: frame}, true
		case STX:
			// unterminated frame, restart
			s.frame = s.frame[:0]
			s.state = stateFrame
		default:
			s.state = stateIdle
		}
	}
	return event{}, false
}

func (s *splitter) appendFrame(b byte) {
	if len(s.frame) >= maxFrameLen {
		s.state = stateIdle
		return
	}
	s.frame = append(s.frame, b)
}

// DecodeEulerIMU decodes an unstuffed EULER+IMU frame payload.
func DecodeEulerIMU(p []byte) (imu.Sample, error) {
	if len(p) != eulerIMULen {
		return imu.Sample{}, fmt.Errorf("%w: %d bytes, want %d", ErrShortFrame, len(p), eulerIMULen)
	}

	want := binary.LittleEndian.Uint16(p[eulerIMUBodyLen:])
	if got := crc16(p[:eulerIMUBodyLen]); got != want {
		return imu.Sample{}, fmt.Errorf("%w: frame 0x%04X, computed 0x%04X", ErrBadChecksum, want, got)
	}

	var v [eulerIMUValues]float64
	for i := range v {
		v[i] = float64(r4(p[1+4*i:]))
	}

	return imu.Sample{
		Seq:   p[0],
		Euler: imu.EulerAngle{Roll: v[0], Pitch: v[1], Yaw: v[2]},
		IMU: imu.Data{
			Ax: v[3], Ay: v[4], Az: v[5],
			Gx: v[6], Gy: v[7], Gz: v[8],
			Mx: v[9], My: v[10], Mz: v[11],
			Temperature: v[12],
		},
	}, nil
}

func r4(p []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p))
}

// crc16 is CRC16-CCITT (poly 0x1021, init 0).
func crc16(p []byte) uint16 {
	var crc uint16
	for _, b := range p {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
