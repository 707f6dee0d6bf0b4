// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package myahrs

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Wire names of the commands used by Initialize.
const (
	cmdBinaryOut = "bin_out"
	cmdDivider   = "divider"
	cmdMode      = "mode"
)

// FormatCommand renders "@name,arg*CS\r\n". The checksum is the XOR of
// every byte between '@' and '*', the same rule NMEA uses.
func FormatCommand(name, arg string) string {
	body := name
	if arg != "" {
		body += "," + arg
	}
	return fmt.Sprintf("@%s*%s\r\n", body, nmea.Checksum(body))
}

// Response is a parsed "~name,status*CS" line.
type Response struct {
	Name   string
	Status string
	Detail []string
}

// OK reports whether the board accepted the command.
func (r Response) OK() bool {
	return r.Status == "OK"
}

// ParseResponse parses a response line. Trailing CR/LF is ignored.
func ParseResponse(line string) (Response, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "~") {
		return Response{}, fmt.Errorf("not a response: %q", line)
	}

	body, sum, found := strings.Cut(line[1:], "*")
	if !found {
		return Response{}, fmt.Errorf("response without checksum: %q", line)
	}
	if want := nmea.Checksum(body); !strings.EqualFold(sum, want) {
		return Response{}, fmt.Errorf("%w: %q (want %s)", ErrBadChecksum, line, want)
	}

	fields := strings.Split(body, ",")
	r := Response{Name: fields[0]}
	if len(fields) > 1 {
		r.Status = fields[1]
		r.Detail = fields[2:]
	}
	return r, nil
}

// normalizeArg strips the blanks callers use for readability, e.g.
// "EULER, IMU" goes on the wire as "EULER,IMU".
func normalizeArg(arg string) string {
	return strings.ReplaceAll(arg, " ", "")
}
