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

package einknfc

import (
	"context"
	"time"
)

// Transceiver is the IsoDep byte-exchange primitive the protocol
// engines are driven over. Implementations carry one APDU to the tag
// and return the raw response, including the trailing status words.
//
// A transceiver is exclusively owned by one Writer for the duration of
// one run. Implementations do not need to be safe for concurrent use.
type Transceiver interface {
	// Transceive sends request to the tag and returns the response.
	// A transport-level failure (tag removed, field lost, reader error)
	// is returned as an error; the engines treat any such error as
	// terminal for the run.
	Transceive(ctx context.Context, request []byte) ([]byte, error)

	// Close releases the underlying transport.
	Close() error

	// SetTimeout sets the per-exchange timeout.
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is usable.
	IsConnected() bool

	// Type returns the transceiver type.
	Type() TransceiverType
}

// TransceiverType identifies a transceiver backend.
type TransceiverType string

const (
	// TransceiverPN532UART is a PN532 reader on a serial port.
	TransceiverPN532UART TransceiverType = "pn532-uart"
	// TransceiverPN532I2C is a PN532 reader on an I2C bus.
	TransceiverPN532I2C TransceiverType = "pn532-i2c"
	// TransceiverMock is a mock transceiver for testing.
	TransceiverMock TransceiverType = "mock"
)

// TagAwaiter is implemented by transceivers that can detect tag arrival
// themselves. The Writer calls WaitForTag before the first exchange so
// a run starts only once a tag is actually in the field.
type TagAwaiter interface {
	// WaitForTag blocks until an ISO 14443-4 tag enters the field and is
	// selected, or ctx expires.
	WaitForTag(ctx context.Context) error
}
