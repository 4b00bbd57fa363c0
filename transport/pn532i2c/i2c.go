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

// Package pn532i2c drives e-ink tags through a PN532 reader on an I2C
// bus. Reads are prefixed with a ready-status byte; the transport
// polls it before pulling the ACK and response frames.
package pn532i2c

import (
	"context"
	"fmt"
	"time"

	einknfc "github.com/ZaparooProject/go-eink-nfc"
	"github.com/ZaparooProject/go-eink-nfc/internal/frame"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// 7-bit PN532 I2C address.
	pn532Addr = 0x24
	// First byte of every I2C read: 0x01 when a frame is waiting.
	readyByte = 0x01

	maxClockFreq = 400 * physic.KiloHertz

	cmdSAMConfiguration    = 0x14
	cmdInListPassiveTarget = 0x4A
	cmdInDataExchange      = 0x40

	defaultTimeout = 2 * time.Second
	pollInterval   = 150 * time.Millisecond
)

// Transceiver is an einknfc.Transceiver over a PN532 on an I2C bus.
type Transceiver struct {
	dev     *i2c.Dev
	bus     i2c.BusCloser
	busName string
	timeout time.Duration
	target  byte
}

// New opens the I2C bus and configures the PN532.
func New(busName string) (*Transceiver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, einknfc.NewTransportError("open", busName, err, einknfc.ErrorTypePermanent)
	}
	// Best effort; the default bus speed also works.
	_ = bus.SetSpeed(maxClockFreq)

	t := &Transceiver{
		dev:     &i2c.Dev{Addr: pn532Addr, Bus: bus},
		bus:     bus,
		busName: busName,
		timeout: defaultTimeout,
	}
	if _, err := t.command(context.Background(), cmdSAMConfiguration, []byte{0x01, 0x14, 0x00}); err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("SAM configuration failed: %w", err)
	}
	return t, nil
}

// WaitForTag polls InListPassiveTarget until a tag is selected or ctx
// expires.
func (t *Transceiver) WaitForTag(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
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

// Transceive tunnels one tag command through InDataExchange.
func (t *Transceiver) Transceive(ctx context.Context, request []byte) ([]byte, error) {
	args := make([]byte, 0, len(request)+1)
	args = append(args, t.targetNumber())
	args = append(args, request...)
	resp, err := t.command(ctx, cmdInDataExchange, args)
	if err != nil {
		return nil, err
	}
	if len(resp) < 1 {
		return nil, einknfc.NewFrameCorruptedError("transceive", t.busName)
	}
	if status := resp[0] & 0x3F; status != 0 {
		return nil, einknfc.NewTransportError("transceive", t.busName,
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

// Close closes the I2C bus.
func (t *Transceiver) Close() error {
	if t.bus == nil {
		return nil
	}
	err := t.bus.Close()
	t.bus = nil
	t.dev = nil
	if err != nil {
		return einknfc.NewTransportError("close", t.busName, err, einknfc.ErrorTypePermanent)
	}
	return nil
}

// SetTimeout sets the per-command response deadline.
func (t *Transceiver) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// IsConnected returns true while the bus is open.
func (t *Transceiver) IsConnected() bool {
	return t.dev != nil
}

// Type returns TransceiverPN532I2C.
func (*Transceiver) Type() einknfc.TransceiverType {
	return einknfc.TransceiverPN532I2C
}

func (t *Transceiver) command(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	frm, err := frame.BuildFrame(cmd, args)
	if err != nil {
		return nil, einknfc.NewDataTooLargeError("command", t.busName)
	}
	if err := t.dev.Tx(frm, nil); err != nil {
		return nil, einknfc.NewTransportError("write", t.busName, err, einknfc.ErrorTypeTransient)
	}

	deadline := time.Now().Add(t.timeout)
	ack, err := t.readWhenReady(ctx, deadline, len(frame.AckFrame))
	if err != nil {
		return nil, err
	}
	if !frame.IsAck(ack) {
		return nil, einknfc.NewFrameCorruptedError("readAck", t.busName)
	}

	buf, err := t.readWhenReady(ctx, deadline, frame.MaxFrameDataLength+8)
	if err != nil {
		return nil, err
	}
	resp, err := frame.ParseResponse(buf)
	if err != nil {
		return nil, einknfc.NewFrameCorruptedError("readResponse", t.busName)
	}
	if len(resp) < 1 || resp[0] != cmd+1 {
		return nil, einknfc.NewFrameCorruptedError("command", t.busName)
	}
	return resp[1:], nil
}

// readWhenReady polls the ready-status byte, then reads n frame bytes.
func (t *Transceiver) readWhenReady(ctx context.Context, deadline time.Time, n int) ([]byte, error) {
	buf := make([]byte, n+1)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, einknfc.NewTimeoutError("read", t.busName)
		}
		if err := t.dev.Tx(nil, buf); err != nil {
			return nil, einknfc.NewTransportError("read", t.busName, err, einknfc.ErrorTypeTransient)
		}
		if buf[0] == readyByte {
			return buf[1:], nil
		}
		time.Sleep(time.Millisecond)
	}
}

// Interface checks.
var (
	_ einknfc.Transceiver = (*Transceiver)(nil)
	_ einknfc.TagAwaiter  = (*Transceiver)(nil)
)
