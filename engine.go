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

// State identifies the phase a protocol engine is in. Engines only move
// forward: a state never re-issues a command that was already answered.
type State int

const (
	// StateAwaitingTag is the initial state, before the first exchange.
	StateAwaitingTag State = iota
	// StateInit is the authentication/init command.
	StateInit
	// StateGpio0 is GPIO/power control step 0.
	StateGpio0
	// StateGpio1 is GPIO/power control step 1.
	StateGpio1
	// StateDisplayInit is the BWRY display initialization command.
	StateDisplayInit
	// StateConfigureReg covers the per-protocol register setup pairs
	// (select register, then write its value).
	StateConfigureReg
	// StateStartTx is the BWRY start-transmission command.
	StateStartTx
	// StateSelectPlane selects the GenB B/W (0x24) or Red (0x26) data
	// buffer register.
	StateSelectPlane
	// StateSendData is the chunked image-data transfer.
	StateSendData
	// StateRefresh triggers the display refresh.
	StateRefresh
	// StatePollBusy polls the busy status until the refresh completes.
	StatePollBusy
	// StateCleanup covers the BWRY post-refresh register writes.
	StateCleanup
	// StateDone is the successful terminal state.
	StateDone
	// StateError is the failed terminal state.
	StateError
)

var stateNames = map[State]string{
	StateAwaitingTag:  "awaiting tag",
	StateInit:         "init",
	StateGpio0:        "gpio 0",
	StateGpio1:        "gpio 1",
	StateDisplayInit:  "display init",
	StateConfigureReg: "configure registers",
	StateStartTx:      "start transmission",
	StateSelectPlane:  "select plane",
	StateSendData:     "send image data",
	StateRefresh:      "refresh",
	StatePollBusy:     "wait for refresh",
	StateCleanup:      "cleanup",
	StateDone:         "done",
	StateError:        "error",
}

// String returns a human-readable state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Exchange is one step the driver must perform on the engine's behalf:
// wait Delay, then transceive Payload and feed the result into the next
// Step call. The engine never sleeps or transmits itself.
type Exchange struct {
	// Payload is the complete command to transceive.
	Payload []byte
	// Delay is how long the driver must wait before transmitting.
	// It covers the protocol's settle delays, the initial refresh wait
	// and the busy-poll interval.
	Delay time.Duration
}

// Engine is a single-use protocol state machine. It is created for one
// write attempt with one encoded payload, runs to StateDone or
// StateError exactly once, and is then discarded.
//
// The driver contract: call Step with (nil, nil) to obtain the first
// exchange, then repeatedly perform the returned exchange and call Step
// with its result. A nil exchange and nil error means the run
// completed. Once Step has returned an error, the engine is dead and
// every further call returns the same error wrapped in
// ErrEngineFinished semantics; no further exchanges are ever issued.
type Engine interface {
	// Step advances the machine with the previous exchange's result.
	Step(resp []byte, exchErr error) (*Exchange, error)
	// State returns the current state.
	State() State
	// Progress returns completion in [0, 1]. While polling busy status
	// it saturates just below 1.
	Progress() float64
}

// NewEngine creates the engine for the tag's protocol, validating that
// the payload was encoded for the tag's image format.
func NewEngine(tag TagType, payload *Payload, opts ...EngineOption) (Engine, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrPayloadFormat)
	}
	if payload.Format() != tag.Format {
		return nil, fmt.Errorf("%w: payload is %v, tag %q wants %v",
			ErrPayloadFormat, payload.Format(), tag.Name, tag.Format)
	}
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	switch tag.Protocol {
	case ProtocolBWRY:
		return newBWRYEngine(payload, cfg), nil
	case ProtocolGenB:
		return newGenBEngine(payload, cfg), nil
	default:
		return nil, fmt.Errorf("%w: unsupported protocol %v", ErrPayloadFormat, tag.Protocol)
	}
}

// engineConfig carries the tunables shared by both engines.
type engineConfig struct {
	// busyPollLimit bounds the number of busy-status reads before the
	// run fails with ErrBusyTimeout. The protocol itself specifies no
	// ceiling; a bound keeps a dead panel from polling forever.
	busyPollLimit int
}

func defaultEngineConfig() engineConfig {
	return engineConfig{busyPollLimit: 150}
}

// EngineOption configures an engine at construction time.
type EngineOption func(*engineConfig)

// WithEngineBusyPollLimit overrides the busy-poll ceiling.
func WithEngineBusyPollLimit(limit int) EngineOption {
	return func(cfg *engineConfig) {
		if limit > 0 {
			cfg.busyPollLimit = limit
		}
	}
}

// busyStatusByte extracts the status byte from a busy-read response.
// The expected shape is [status SW1 SW2]. Shorter responses report
// ok=false; the engines treat that as "ready", matching observed
// hardware that truncates the final poll response.
func busyStatusByte(resp []byte) (status byte, ok bool) {
	if len(resp) < 3 {
		return 0, false
	}
	return resp[0], true
}
