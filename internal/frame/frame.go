// go-eink-nfc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-eink-nfc.
//
// go-eink-nfc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-eink-nfc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-eink-nfc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package frame

import (
	"bytes"
	"errors"
	"fmt"
)

// Frame structure errors. The transports wrap these into their own
// error types with port context.
var (
	ErrFrameTooShort   = errors.New("frame too short")
	ErrBadStartCode    = errors.New("bad frame start code")
	ErrBadLengthParity = errors.New("length checksum mismatch")
	ErrBadDataParity   = errors.New("data checksum mismatch")
	ErrFrameTooLong    = errors.New("frame data exceeds maximum length")
)

// BuildFrame assembles a normal information frame around cmd+data:
//
//	00 00 FF LEN LCS D4 <cmd> <data...> DCS 00
//
// LEN counts TFI + cmd + data; DCS covers the same bytes.
func BuildFrame(cmd byte, data []byte) ([]byte, error) {
	length := len(data) + 2 // TFI + cmd
	if length > MaxFrameDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, length)
	}
	f := make([]byte, 0, length+7)
	f = append(f, Preamble, StartCode1, StartCode2)
	f = append(f, byte(length), CalculateLengthChecksum(byte(length)))
	f = append(f, HostToPn532, cmd)
	f = append(f, data...)
	body := f[len(f)-length:]
	f = append(f, CalculateDataChecksum(body[0], body[1:]))
	return append(f, Postamble), nil
}

// IsAck reports whether buf starts with an ACK frame.
func IsAck(buf []byte) bool {
	return len(buf) >= len(AckFrame) && bytes.Equal(buf[:len(AckFrame)], AckFrame)
}

// ParseResponse validates a received information frame and returns its
// payload after the TFI byte (the response code and its data).
func ParseResponse(buf []byte) ([]byte, error) {
	if len(buf) < MinFrameLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(buf))
	}
	// Tolerate a missing preamble; some readers strip it.
	start := bytes.Index(buf, []byte{StartCode1, StartCode2})
	if start < 0 {
		return nil, ErrBadStartCode
	}
	buf = buf[start+2:]
	if len(buf) < 4 {
		return nil, fmt.Errorf("%w: truncated after start code", ErrFrameTooShort)
	}
	length, lcs := buf[0], buf[1]
	if length+lcs != 0 {
		return nil, ErrBadLengthParity
	}
	if len(buf) < int(length)+3 {
		return nil, fmt.Errorf("%w: want %d payload bytes, have %d",
			ErrFrameTooShort, length, len(buf)-3)
	}
	body := buf[2 : 2+int(length)]
	dcs := buf[2+int(length)]
	if ValidateChecksum(append(append([]byte(nil), body...), dcs)) {
		return nil, ErrBadDataParity
	}
	if body[0] != Pn532ToHost {
		return nil, fmt.Errorf("%w: TFI %02X", ErrBadStartCode, body[0])
	}
	return body[1:], nil
}
