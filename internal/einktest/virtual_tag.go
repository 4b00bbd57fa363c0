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

// Package einktest provides a simulated e-ink tag for testing the
// protocol engines without hardware. The simulation accepts the raw
// command bytes, routes register writes into per-register buffers, and
// answers busy polls a configurable number of times before reporting
// ready.
package einktest

import (
	"errors"
	"fmt"
)

// ErrFieldLost is returned from Exchange at the FailAt index, standing
// in for the tag leaving the reader field mid-run.
var ErrFieldLost = errors.New("einktest: rf field lost")

// Mode selects which protocol convention the virtual tag speaks.
type Mode int

const (
	// ModeBWRY simulates a 4-color tag: image data arrives after the
	// start-transmission command, busy status 0x00, ready anything else.
	ModeBWRY Mode = iota
	// ModeGenB simulates a 3-color tag: image data arrives into the
	// plane registers 0x24/0x26, ready status 0x01, busy anything else.
	ModeGenB
)

// VirtualTag is a scriptable in-memory e-ink tag.
type VirtualTag struct {
	// Regs holds the value last written to each selected register.
	Regs map[byte][]byte
	// ImageData accumulates BWRY image chunks (writes after the
	// start-transmission command).
	ImageData []byte
	// BWData and RedData accumulate GenB plane chunks.
	BWData  []byte
	RedData []byte
	// Requests records every exchanged command.
	Requests [][]byte

	mode Mode
	// BusyReads is how many status reads answer busy before the tag
	// reports ready.
	BusyReads int
	// FailAt injects ErrFieldLost at the given zero-based exchange
	// index. Negative disables injection.
	FailAt int

	statusReads int
	selectedReg byte
	txStarted   bool
	refreshed   bool
}

// NewBWRYTag creates a virtual 4-color tag.
func NewBWRYTag() *VirtualTag {
	return &VirtualTag{mode: ModeBWRY, Regs: make(map[byte][]byte), FailAt: -1}
}

// NewGenBTag creates a virtual 3-color tag.
func NewGenBTag() *VirtualTag {
	return &VirtualTag{mode: ModeGenB, Regs: make(map[byte][]byte), FailAt: -1}
}

// Exchange processes one command and returns the tag's response.
func (v *VirtualTag) Exchange(request []byte) ([]byte, error) {
	idx := len(v.Requests)
	v.Requests = append(v.Requests, append([]byte(nil), request...))
	if idx == v.FailAt {
		return nil, ErrFieldLost
	}
	if len(request) < 2 || request[0] != 0x74 {
		return nil, fmt.Errorf("einktest: not a tag command: % X", request)
	}

	switch request[1] {
	case 0xB1, 0x97: // init, gpio
		return ok(), nil
	case 0x00: // display init (BWRY)
		return ok(), nil
	case 0x01: // start transmission (BWRY)
		v.txStarted = true
		return ok(), nil
	case 0x02: // refresh (BWRY)
		v.refreshed = true
		return ok(), nil
	case 0x99: // select register
		if len(request) < 6 {
			return nil, fmt.Errorf("einktest: short select: % X", request)
		}
		v.selectedReg = request[5]
		return ok(), nil
	case 0x9A: // write data
		return v.writeData(request)
	case 0x9B: // read status
		return v.readStatus(), nil
	default:
		return nil, fmt.Errorf("einktest: unknown command %02X", request[1])
	}
}

func (v *VirtualTag) writeData(request []byte) ([]byte, error) {
	if len(request) < 5 {
		return nil, fmt.Errorf("einktest: short write: % X", request)
	}
	n := int(request[4])
	if len(request) != 5+n {
		return nil, fmt.Errorf("einktest: write length %d, have %d bytes", n, len(request)-5)
	}
	data := request[5:]

	if v.mode == ModeBWRY && v.txStarted && !v.refreshed {
		v.ImageData = append(v.ImageData, data...)
		return ok(), nil
	}
	if v.mode == ModeGenB {
		switch v.selectedReg {
		case 0x24:
			v.BWData = append(v.BWData, data...)
			return ok(), nil
		case 0x26:
			v.RedData = append(v.RedData, data...)
			return ok(), nil
		}
	}
	v.Regs[v.selectedReg] = append([]byte(nil), data...)
	return ok(), nil
}

func (v *VirtualTag) readStatus() []byte {
	v.statusReads++
	if v.statusReads <= v.BusyReads {
		// 0x00 reads as busy under both conventions.
		return []byte{0x00, 0x90, 0x00}
	}
	if v.mode == ModeGenB {
		return []byte{0x01, 0x90, 0x00}
	}
	return []byte{0xFF, 0x90, 0x00}
}

// StatusReads returns how many status polls the tag has answered.
func (v *VirtualTag) StatusReads() int {
	return v.statusReads
}

func ok() []byte {
	return []byte{0x90, 0x00}
}
