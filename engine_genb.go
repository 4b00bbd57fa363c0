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
	"fmt"
	"time"
)

// GenB protocol timing. The 3-color refresh is much faster than BWRY,
// so the initial wait and poll interval are shorter.
const (
	genbGpioSettle   = 50 * time.Millisecond
	genbConfigSettle = 100 * time.Millisecond
	genbInitialWait  = 4 * time.Second
	genbPollInterval = 200 * time.Millisecond
)

// GenB plane buffer registers and refresh control.
const (
	genbRegBWData  = 0x24
	genbRegRedData = 0x26
	genbRegRefresh = 0x22
	genbRegEnable  = 0x20
)

// SSD16xx-style controller setup: driver output, data entry mode, RAM
// window, border waveform, temperature sensor, RAM counters.
var genbConfigRegs = []regPair{
	{reg: 0x01, val: []byte{0xC7, 0x00, 0x01}},
	{reg: 0x11, val: []byte{0x01}},
	{reg: 0x44, val: []byte{0x00, 0x18}},
	{reg: 0x45, val: []byte{0xC7, 0x00, 0x00, 0x00}},
	{reg: 0x3C, val: []byte{0x05}},
	{reg: 0x18, val: []byte{0x80}},
	{reg: 0x4E, val: []byte{0x00}},
	{reg: 0x4F, val: []byte{0xC7, 0x00}},
}

// Fixed exchange count for one GenB run: init + 2x gpio, 8 register
// pairs, plane select + 20 chunks for each of the two planes, the
// refresh pair (0x22 = 0xF7), the activation select (0x20), and the
// first busy read.
const genbFixedExchanges = 3 + 2*8 + 2*(1+planeChunkCount) + 2 + 1 + 1

// genbEngine sequences the 3-color write:
//
//	Init -> Gpio0 -> Gpio1 -> 8 config regs -> select 0x24 ->
//	20 x B/W chunk -> select 0x26 -> 20 x Red chunk -> reg 0x22 = 0xF7 ->
//	select 0x20 -> 4 s wait -> PollBusy (200 ms, ready on status == 0x01)
//	-> Done
//
// Unlike BWRY there is no display-init command, no start-transmission
// command and no post-refresh cleanup.
type genbEngine struct {
	err     error
	payload *Payload
	cfg     engineConfig
	state   State
	pairIdx int
	wrote   bool
	plane   int // 0 = B/W, 1 = Red
	chunk   int
	refresh int // sub-step within the refresh trigger sequence
	polls   int
	issued  int
}

func newGenBEngine(payload *Payload, cfg engineConfig) *genbEngine {
	return &genbEngine{payload: payload, cfg: cfg, state: StateAwaitingTag}
}

// State returns the current state.
func (e *genbEngine) State() State {
	return e.state
}

// Progress returns completion in [0, 1].
func (e *genbEngine) Progress() float64 {
	if e.state == StateDone {
		return 1
	}
	p := float64(e.issued) / float64(genbFixedExchanges)
	if p > 0.99 {
		p = 0.99
	}
	return p
}

// Step advances the machine with the previous exchange's result.
func (e *genbEngine) Step(resp []byte, exchErr error) (*Exchange, error) {
	switch e.state {
	case StateDone:
		return nil, nil
	case StateError:
		return nil, fmt.Errorf("%w: %w", ErrEngineFinished, e.err)
	case StateAwaitingTag:
		e.state = StateInit
		return e.issue(cmdInit, 0), nil
	}

	if exchErr != nil {
		return nil, e.fail(fmt.Errorf("%w: %v: %w", ErrTransmitFailed, e.state, exchErr))
	}
	if e.state == StatePollBusy {
		return e.stepPoll(resp)
	}
	if err := checkResponseStatus(resp); err != nil {
		return nil, e.fail(fmt.Errorf("%v: %w", e.state, err))
	}
	return e.advance()
}

// advance moves past the state whose command was just acknowledged.
func (e *genbEngine) advance() (*Exchange, error) {
	switch e.state {
	case StateInit:
		e.state = StateGpio0
		return e.issue(cmdGpio0, 0), nil
	case StateGpio0:
		e.state = StateGpio1
		return e.issue(cmdGpio1, genbGpioSettle), nil
	case StateGpio1:
		e.state = StateConfigureReg
		return e.issue(buildSelectRegister(genbConfigRegs[0].reg), genbGpioSettle), nil
	case StateConfigureReg:
		if !e.wrote {
			e.wrote = true
			return e.issue(buildWriteData(genbConfigRegs[e.pairIdx].val), 0), nil
		}
		e.wrote = false
		e.pairIdx++
		if e.pairIdx < len(genbConfigRegs) {
			return e.issue(buildSelectRegister(genbConfigRegs[e.pairIdx].reg), 0), nil
		}
		// The RAM counter write (0x4F) wants a settle before plane data.
		e.state = StateSelectPlane
		return e.issue(buildSelectRegister(genbRegBWData), genbConfigSettle), nil
	case StateSelectPlane:
		e.state = StateSendData
		e.chunk = 0
		return e.issue(buildWriteData(e.planeChunk(0)), 0), nil
	case StateSendData:
		e.chunk++
		if e.chunk < planeChunkCount {
			return e.issue(buildWriteData(e.planeChunk(e.chunk)), 0), nil
		}
		if e.plane == 0 {
			e.plane = 1
			e.state = StateSelectPlane
			return e.issue(buildSelectRegister(genbRegRedData), 0), nil
		}
		e.state = StateRefresh
		return e.issue(buildSelectRegister(genbRegRefresh), 0), nil
	case StateRefresh:
		switch e.refresh {
		case 0: // 0x22 selected, write the update-control value
			e.refresh = 1
			return e.issue(buildWriteData([]byte{0xF7}), 0), nil
		case 1: // update control written, master activation
			e.refresh = 2
			return e.issue(buildSelectRegister(genbRegEnable), 0), nil
		default: // activation acknowledged, refresh is running
			e.state = StatePollBusy
			e.polls = 1
			return e.issue(cmdReadStatus, genbInitialWait), nil
		}
	default:
		return nil, e.fail(fmt.Errorf("%w: advance from %v", ErrUnexpectedResponse, e.state))
	}
}

// stepPoll handles one busy-status response. Ready predicate for GenB:
// status byte == 0x01, the inverse convention of BWRY.
func (e *genbEngine) stepPoll(resp []byte) (*Exchange, error) {
	if err := checkResponseStatus(resp); err != nil {
		return nil, e.fail(fmt.Errorf("%v: %w", e.state, err))
	}
	status, ok := busyStatusByte(resp)
	debugf("GenB busy poll %d: status=%02X", e.polls, status)
	if ok && status != 0x01 {
		if e.polls >= e.cfg.busyPollLimit {
			return nil, e.fail(fmt.Errorf("%w: still busy after %d polls", ErrBusyTimeout, e.polls))
		}
		e.polls++
		return e.issue(cmdReadStatus, genbPollInterval), nil
	}
	e.state = StateDone
	debugln("GenB write complete")
	return nil, nil
}

// planeChunk returns the current plane's i-th chunk.
func (e *genbEngine) planeChunk(i int) []byte {
	if e.plane == 0 {
		return e.payload.bwChunk(i)
	}
	return e.payload.redChunk(i)
}

func (e *genbEngine) issue(payload []byte, delay time.Duration) *Exchange {
	e.issued++
	return &Exchange{Payload: payload, Delay: delay}
}

func (e *genbEngine) fail(err error) error {
	e.state = StateError
	e.err = err
	return err
}
