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

// Package pn532uart drives e-ink tags through a PN532 reader on a
// serial port. The PN532 handles the ISO 14443-4 layer; tag commands
// are tunnelled through InDataExchange.
package pn532uart

import (
	"context"
	"errors"
	"fmt"
	"time"

	einknfc "github.com/ZaparooProject/go-eink-nfc"
	"github.com/ZaparooProject/go-eink-nfc/internal/frame"
	"go.bug.st/serial"
)

// PN532 command codes used by this transport.
const (
	cmdSAMConfiguration    = 0x14
	cmdInListPassiveTarget = 0x4A
	cmdInDataExchange      = 0x40
	cmdInRelease           = 0x52
)

const (
	baudRate       = 115200
	defaultTimeout = 2 * time.Second
	pollInterval   = 150 * time.Millisecond
)

// wakeupSequence brings the PN532 out of low-VBAT mode before the
// first real frame.
var wakeupSequence = []byte{
	0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Transceiver is an einknfc.Transceiver over a PN532 on a serial port.
type Transceiver struct {
	port     serial.Port
	portName string
	timeout  time.Duration
	target   byte
	open     bool
}

// New opens the serial port and configures the PN532 (SAM in normal
// mode, no IRQ).
func New(portName string) (*Transceiver, error) {
	mode := &serial.Mode{BaudRate: baudRate}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, einknfc.NewTransportError("open", portName, err, einknfc.ErrorTypePermanent)
	}
	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		_ = port.Close()
		return nil, einknfc.NewTransportError("open", portName, err, einknfc.ErrorTypePermanent)
	}

	t := &Transceiver{
		port:     port,
		portName: portName,
		timeout:  defaultTimeout,
		open:     true,
	}
	if err := t.wakeup(); err != nil {
		_ = port.Close()
		return nil, err
	}
	// SAM normal mode, default field timeout, no IRQ line.
	if _, err := t.command(context.Background(), cmdSAMConfiguration, []byte{0x01, 0x14, 0x00}); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("SAM configuration failed: %w", err)
	}
	return t, nil
}

func (t *Transceiver) wakeup() error {
	if _, err := t.port.Write(wakeupSequence); err != nil {
		return einknfc.NewTransportError("wakeup", t.portName, err, einknfc.ErrorTypeTransient)
	}
	// Drain whatever the chip answers to the wakeup preamble.
	_ = t.port.ResetInputBuffer()
	return nil
}

// WaitForTag polls InListPassiveTarget until an ISO 14443-4 capable
// tag is selected or ctx expires.
func (t *Transceiver) WaitForTag(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		// One target, 106 kbps type A.
		resp, err := t.command(ctx, cmdInListPassiveTarget, []byte{0x01, 0x00})
		if err != nil {
			if einknfc.IsRetryable(err) {
				continue
			}
			return err
		}
		if len(resp) >= 2 && resp[0] >= 1 {
			t.target = resp[1]
			return nil
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Transceive tunnels one tag command through InDataExchange and
// returns the tag's raw response.
func (t *Transceiver) Transceive(ctx context.Context, request []byte) ([]byte, error) {
	args := make([]byte, 0, len(request)+1)
	args = append(args, t.targetNumber())
	args = append(args, request...)
	resp, err := t.command(ctx, cmdInDataExchange, args)
	if err != nil {
		return nil, err
	}
	if len(resp) < 1 {
		return nil, einknfc.NewFrameCorruptedError("transceive", t.portName)
	}
	// Low 6 bits of the status byte: 0x00 means success.
	if status := resp[0] & 0x3F; status != 0 {
		return nil, einknfc.NewTransportError("transceive", t.portName,
			fmt.Errorf("%w: PN532 status %02X", einknfc.ErrTransmitFailed, status),
			einknfc.ErrorTypeTransient)
	}
	return resp[1:], nil
}

func (t *Transceiver) targetNumber() byte {
	if t.target == 0 {
		return 1
	}
	return t.target
}

// Close releases the selected target and the serial port.
func (t *Transceiver) Close() error {
	if !t.open {
		return nil
	}
	t.open = false
	// Best effort: let the PN532 drop the RF field cleanly.
	_, _ = t.command(context.Background(), cmdInRelease, []byte{0x00})
	if err := t.port.Close(); err != nil {
		return einknfc.NewTransportError("close", t.portName, err, einknfc.ErrorTypePermanent)
	}
	return nil
}

// SetTimeout sets the per-command response deadline.
func (t *Transceiver) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// IsConnected returns true while the port is open.
func (t *Transceiver) IsConnected() bool {
	return t.open
}

// Type returns TransceiverPN532UART.
func (*Transceiver) Type() einknfc.TransceiverType {
	return einknfc.TransceiverPN532UART
}

// command performs one PN532 command round trip: frame out, ACK in,
// response frame in, response code checked against cmd+1.
func (t *Transceiver) command(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	frm, err := frame.BuildFrame(cmd, args)
	if err != nil {
		return nil, einknfc.NewDataTooLargeError("command", t.portName)
	}
	if _, err := t.port.Write(frm); err != nil {
		return nil, einknfc.NewTransportError("write", t.portName, err, einknfc.ErrorTypeTransient)
	}

	deadline := time.Now().Add(t.timeout)
	if err := t.readAck(ctx, deadline); err != nil {
		return nil, err
	}
	resp, err := t.readResponse(ctx, deadline)
	if err != nil {
		return nil, err
	}
	if len(resp) < 1 || resp[0] != cmd+1 {
		return nil, einknfc.NewFrameCorruptedError("command", t.portName)
	}
	return resp[1:], nil
}

func (t *Transceiver) readAck(ctx context.Context, deadline time.Time) error {
	buf := make([]byte, 0, len(frame.AckFrame))
	tmp := make([]byte, len(frame.AckFrame))
	for len(buf) < len(frame.AckFrame) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return einknfc.NewTimeoutError("readAck", t.portName)
		}
		n, err := t.port.Read(tmp[:len(frame.AckFrame)-len(buf)])
		if err != nil {
			return einknfc.NewTransportError("read", t.portName, err, einknfc.ErrorTypeTransient)
		}
		buf = append(buf, tmp[:n]...)
	}
	if !frame.IsAck(buf) {
		return einknfc.NewFrameCorruptedError("readAck", t.portName)
	}
	return nil
}

func (t *Transceiver) readResponse(ctx context.Context, deadline time.Time) ([]byte, error) {
	buf := make([]byte, 0, frame.MaxFrameDataLength+8)
	tmp := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, einknfc.NewTimeoutError("readResponse", t.portName)
		}
		n, err := t.port.Read(tmp)
		if err != nil {
			return nil, einknfc.NewTransportError("read", t.portName, err, einknfc.ErrorTypeTransient)
		}
		buf = append(buf, tmp[:n]...)
		if len(buf) < frame.MinFrameLength {
			continue
		}
		resp, err := frame.ParseResponse(buf)
		if err == nil {
			return resp, nil
		}
		// Keep reading while the frame is merely incomplete.
		if errors.Is(err, frame.ErrFrameTooShort) {
			continue
		}
		return nil, einknfc.NewFrameCorruptedError("readResponse", t.portName)
	}
}

// Interface checks.
var (
	_ einknfc.Transceiver = (*Transceiver)(nil)
	_ einknfc.TagAwaiter  = (*Transceiver)(nil)
)
