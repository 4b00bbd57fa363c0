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

import "fmt"

// All byte values in this file were recovered by reverse-engineering
// the vendor's Android application. They are opaque protocol constants;
// do not normalize or reorder them.

// Command class byte shared by every tag command.
const cmdClass = 0x74

// Fixed command templates shared by both protocols.
var (
	// Authentication/init: 74 B1 00 00 08 00 11 22 33 44 55 66 77
	cmdInit = []byte{
		0x74, 0xB1, 0x00, 0x00, 0x08,
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
	}

	// GPIO/power control step 0: 74 97 00 08 00
	cmdGpio0 = []byte{0x74, 0x97, 0x00, 0x08, 0x00}

	// GPIO/power control step 1: 74 97 01 08 00
	cmdGpio1 = []byte{0x74, 0x97, 0x01, 0x08, 0x00}

	// Read busy status: 74 9B 00 0F 01
	cmdReadStatus = []byte{0x74, 0x9B, 0x00, 0x0F, 0x01}
)

// BWRY-only command templates.
var (
	// Display initialization: 74 00 15 00 00
	cmdDisplayInit = []byte{0x74, 0x00, 0x15, 0x00, 0x00}

	// Start data transmission: 74 01 15 01 00
	cmdStartTx = []byte{0x74, 0x01, 0x15, 0x01, 0x00}

	// Trigger display refresh: 74 02 15 02 00
	cmdRefresh = []byte{0x74, 0x02, 0x15, 0x02, 0x00}
)

// Image data transfer parameters. 250-byte chunks are what the vendor
// app uses and what makes the packet-count math come out even: 40
// packets for a 10,000-byte BWRY payload, 20 per 5,000-byte BWR plane.
// One protocol document claims 64-byte chunks; that figure stems from a
// reader frame-size limit, not the tag. TODO: re-verify 250 against
// GenB hardware once a logic trace of the vendor app is available.
const (
	chunkSize       = 250
	bwryChunkCount  = bwryPayloadSize / chunkSize
	planeChunkCount = bwrPlaneSize / chunkSize
)

// buildSelectRegister builds a register-select command:
// 74 99 00 0D 01 <reg>
func buildSelectRegister(reg byte) []byte {
	return []byte{0x74, 0x99, 0x00, 0x0D, 0x01, reg}
}

// buildWriteData builds a register-write command:
// 74 9A 00 0E <len> <data...>
// Data is limited to 255 bytes by the single-byte length field; callers
// never exceed chunkSize.
func buildWriteData(data []byte) []byte {
	cmd := make([]byte, 0, 5+len(data))
	cmd = append(cmd, 0x74, 0x9A, 0x00, 0x0E, byte(len(data)))
	return append(cmd, data...)
}

// regPair is one register configuration step: select <reg>, then write
// its value.
type regPair struct {
	val []byte
	reg byte
}

// checkResponseStatus verifies the trailing status words of a response.
// Success is SW1=0x90 SW2=0x00. Responses shorter than two bytes are
// accepted: some commands answer with nothing beyond the transport ACK.
func checkResponseStatus(resp []byte) error {
	if len(resp) < 2 {
		return nil
	}
	sw1, sw2 := resp[len(resp)-2], resp[len(resp)-1]
	if sw1 != 0x90 || sw2 != 0x00 {
		return fmt.Errorf("%w: SW=%02X %02X", ErrUnexpectedResponse, sw1, sw2)
	}
	return nil
}
