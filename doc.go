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

/*
Package einknfc writes raster images to battery-free, NFC-powered e-ink
tags over an ISO 14443-4 (IsoDep) transport.

The supported tags expose a proprietary APDU-like register protocol that
was reverse-engineered from the vendor's Android application. Two tag
families are implemented:

  - 1.54" BWRY (black/white/red/yellow, 4-color) using the IsoDep BWRY
    protocol
  - 1.54" BWR (black/white/red, 3-color) using the IsoDep GenB protocol

The library is split along the natural seams of the problem:

  - Transceiver: the byte-exchange primitive. Anything that can carry an
    IsoDep APDU to the tag and return the response implements it. Real
    backends for PN532 readers live in transport/pn532uart and
    transport/pn532i2c.
  - Encoders: EncodeBWRY and EncodeBWR turn an indexed Image into the
    exact wire byte layout each protocol expects.
  - Engines: one single-use state machine per protocol, advanced one
    exchange at a time by the Writer. Engines never block and never
    talk to the transport themselves.
  - Writer: drives an engine against a transceiver, owns all timing
    (inter-command delays, refresh wait, busy polling) and reports
    progress.

Basic Usage:

	import (
	    einknfc "github.com/ZaparooProject/go-eink-nfc"
	    "github.com/ZaparooProject/go-eink-nfc/imageload"
	    "github.com/ZaparooProject/go-eink-nfc/transport/pn532uart"
	)

	trans, err := pn532uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}

	img, err := imageload.LoadBMP("photo.bmp", einknfc.FormatBWRY)
	if err != nil {
	    log.Fatal(err)
	}

	writer, err := einknfc.NewWriter(trans)
	if err != nil {
	    log.Fatal(err)
	}
	defer writer.Close()

	if err := writer.Write(context.Background(), einknfc.EPaper154Y, img); err != nil {
	    log.Fatal(err)
	}

A full write takes 15-30 seconds: the tag harvests all of its power
from the NFC field, and the display refresh alone is advertised at
12-16 seconds for the 4-color panels. Keep the tag on the reader until
Write returns.

Error Handling:

All operations return errors that can be inspected with errors.Is:

	if errors.Is(err, einknfc.ErrBusyTimeout) {
	    // refresh never completed
	}

Thread Safety:

A Writer owns its transceiver and runs at most one write at a time;
a concurrent Write fails with ErrWriteInProgress. Sequential reuse is
fine — each run builds a fresh protocol engine internally.
*/
package einknfc
