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

// BWRY protocol timing, from the reverse-engineered vendor sequence.
const (
	bwryGpioSettle    = 50 * time.Millisecond
	bwryPowerSettle   = 200 * time.Millisecond
	bwryConfigSettle  = 100 * time.Millisecond
	bwryPreRefresh    = 50 * time.Millisecond
	bwryCleanupSettle = 200 * time.Millisecond
	// bwryInitialWait precedes the first busy poll. The 4-color refresh
	// is advertised at 12-16 s, so the first 10 s are never ready.
	bwryInitialWait  = 10 * time.Second
	bwryPollInterval = 400 * time.Millisecond
)

// Register setup for 4-color mode.
var bwryConfigRegs = []regPair{
	{reg: 0xE0, val: []byte{0x02}},
	{reg: 0xE6, val: []byte{0x5D}},
	{reg: 0xA5, val: []byte{0x00}},
}

// Post-refresh cleanup registers.
var bwryCleanupRegs = []regPair{
	{reg: 0x02, val: []byte{0x00}},
	{reg: 0x07, val: []byte{0xA5}},
}

// Fixed exchange count for one BWRY run: init + 2x gpio + display init,
// 3 register pairs, start-tx, 40 chunks, refresh, first busy read, and
// 2 cleanup pairs. Extra busy polls are not part of the denominator.
const bwryFixedExchanges = 4 + 2*3 + 1 + bwryChunkCount + 1 + 1 + 2*2

// bwryEngine sequences the 4-color write:
//
//	Init -> Gpio0 -> Gpio1 -> DisplayInit -> regs E0/E6/A5 -> StartTx ->
//	40 x SendChunk -> Refresh -> 10 s wait -> PollBusy (400 ms, ready on
//	status != 0x00) -> cleanup regs 02/07 -> Done
type bwryEngine struct {
	err     error
	payload *Payload
	cfg     engineConfig
	state   State
	pairIdx int
	wrote   bool
	chunk   int
	polls   int
	issued  int
}

func newBWRYEngine(payload *Payload, cfg engineConfig) *bwryEngine {
	return &bwryEngine{payload: payload, cfg: cfg, state: StateAwaitingTag}
}

// State returns the current state.
func (e *bwryEngine) State() State {
	return e.state
}

// Progress returns completion in [0, 1].
func (e *bwryEngine) Progress() float64 {
	if e.state == StateDone {
		return 1
	}
	p := float64(e.issued) / float64(bwryFixedExchanges)
	if p > 0.99 {
		p = 0.99
	}
	return p
}

// Step advances the machine with the previous exchange's result.
func (e *bwryEngine) Step(resp []byte, exchErr error) (*Exchange, error) {
	switch e.state {
	case StateDone:
		return nil, nil
	case StateError:
		return nil, fmt.Errorf("%w: %w", ErrEngineFinished, e.err)
	case StateAwaitingTag:
		// Nothing outstanding; open with the auth/init command.
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
func (e *bwryEngine) advance() (*Exchange, error) {
	switch e.state {
	case StateInit:
		e.state = StateGpio0
		return e.issue(cmdGpio0, 0), nil
	case StateGpio0:
		e.state = StateGpio1
		return e.issue(cmdGpio1, bwryGpioSettle), nil
	case StateGpio1:
		e.state = StateDisplayInit
		return e.issue(cmdDisplayInit, bwryPowerSettle), nil
	case StateDisplayInit:
		e.state = StateConfigureReg
		return e.issue(buildSelectRegister(bwryConfigRegs[0].reg), bwryConfigSettle), nil
	case StateConfigureReg:
		if !e.wrote {
			e.wrote = true
			return e.issue(buildWriteData(bwryConfigRegs[e.pairIdx].val), 0), nil
		}
		e.wrote = false
		e.pairIdx++
		if e.pairIdx < len(bwryConfigRegs) {
			return e.issue(buildSelectRegister(bwryConfigRegs[e.pairIdx].reg), 0), nil
		}
		e.state = StateStartTx
		return e.issue(cmdStartTx, bwryConfigSettle), nil
	case StateStartTx:
		e.state = StateSendData
		return e.issue(buildWriteData(e.payload.chunk(0)), 0), nil
	case StateSendData:
		e.chunk++
		if e.chunk < bwryChunkCount {
			return e.issue(buildWriteData(e.payload.chunk(e.chunk)), 0), nil
		}
		e.state = StateRefresh
		return e.issue(cmdRefresh, bwryPreRefresh), nil
	case StateRefresh:
		e.state = StatePollBusy
		e.polls = 1
		return e.issue(cmdReadStatus, bwryInitialWait), nil
	case StateCleanup:
		if !e.wrote {
			e.wrote = true
			return e.issue(buildWriteData(bwryCleanupRegs[e.pairIdx].val), 0), nil
		}
		e.wrote = false
		e.pairIdx++
		if e.pairIdx < len(bwryCleanupRegs) {
			return e.issue(buildSelectRegister(bwryCleanupRegs[e.pairIdx].reg), bwryCleanupSettle), nil
		}
		e.state = StateDone
		debugln("BWRY write complete")
		return nil, nil
	default:
		return nil, e.fail(fmt.Errorf("%w: advance from %v", ErrUnexpectedResponse, e.state))
	}
}

// stepPoll handles one busy-status response. Ready predicate for BWRY:
// status byte != 0x00. Do not unify with GenB's predicate; they are
// inverted relative to each other.
func (e *bwryEngine) stepPoll(resp []byte) (*Exchange, error) {
	if err := checkResponseStatus(resp); err != nil {
		return nil, e.fail(fmt.Errorf("%v: %w", e.state, err))
	}
	status, ok := busyStatusByte(resp)
	debugf("BWRY busy poll %d: status=%02X", e.polls, status)
	if ok && status == 0x00 {
		if e.polls >= e.cfg.busyPollLimit {
			return nil, e.fail(fmt.Errorf("%w: still busy after %d polls", ErrBusyTimeout, e.polls))
		}
		e.polls++
		return e.issue(cmdReadStatus, bwryPollInterval), nil
	}
	// Ready. A short status response also counts: hardware has been
	// seen truncating the final poll.
	e.state = StateCleanup
	e.pairIdx = 0
	return e.issue(buildSelectRegister(bwryCleanupRegs[0].reg), 0), nil
}

func (e *bwryEngine) issue(payload []byte, delay time.Duration) *Exchange {
	e.issued++
	return &Exchange{Payload: payload, Delay: delay}
}

func (e *bwryEngine) fail(err error) error {
	e.state = StateError
	e.err = err
	return err
}
