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
	"testing"
	"time"

	"github.com/ZaparooProject/go-eink-nfc/internal/einktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runEngine drives an engine against a virtual tag until it terminates,
// returning every exchange it issued.
func runEngine(t *testing.T, engine Engine, tag *einktest.VirtualTag) ([]Exchange, error) {
	t.Helper()
	var (
		resp    []byte
		exchErr error
		log     []Exchange
	)
	for i := 0; i < 1000; i++ {
		exch, err := engine.Step(resp, exchErr)
		if err != nil {
			return log, err
		}
		if exch == nil {
			return log, nil
		}
		log = append(log, *exch)
		resp, exchErr = tag.Exchange(exch.Payload)
	}
	t.Fatal("engine did not terminate")
	return nil, nil
}

func testBWRYPayload(t *testing.T) *Payload {
	t.Helper()
	img := NewImage(200, 200)
	for i := range img.Pix {
		img.Pix[i] = uint8(i) % 4
	}
	payload, err := EncodeBWRY(img)
	require.NoError(t, err)
	return payload
}

func TestBWRYEngineFullRun(t *testing.T) {
	t.Parallel()
	payload := testBWRYPayload(t)
	engine, err := NewEngine(EPaper154Y, payload)
	require.NoError(t, err)

	tag := einktest.NewBWRYTag()
	exchanges, err := runEngine(t, engine, tag)
	require.NoError(t, err)
	assert.Equal(t, StateDone, engine.State())
	assert.InDelta(t, 1.0, engine.Progress(), 0.001)

	// Opening sequence.
	require.GreaterOrEqual(t, len(exchanges), 4)
	assert.Equal(t, cmdInit, exchanges[0].Payload)
	assert.Equal(t, cmdGpio0, exchanges[1].Payload)
	assert.Equal(t, cmdGpio1, exchanges[2].Payload)
	assert.Equal(t, cmdDisplayInit, exchanges[3].Payload)

	// The full image arrived, in order, in 250-byte chunks.
	assert.Equal(t, payload.Bytes(), tag.ImageData)

	// Mode registers, then cleanup registers after the refresh.
	assert.Equal(t, []byte{0x02}, tag.Regs[0xE0])
	assert.Equal(t, []byte{0x5D}, tag.Regs[0xE6])
	assert.Equal(t, []byte{0x00}, tag.Regs[0xA5])
	assert.Equal(t, []byte{0x00}, tag.Regs[0x02])
	assert.Equal(t, []byte{0xA5}, tag.Regs[0x07])

	// No busy reads beyond the first when the tag is immediately ready.
	assert.Equal(t, 1, tag.StatusReads())
}

func TestBWRYEngineChunking(t *testing.T) {
	t.Parallel()
	payload := testBWRYPayload(t)
	engine, err := NewEngine(EPaper154Y, payload)
	require.NoError(t, err)

	tag := einktest.NewBWRYTag()
	_, err = runEngine(t, engine, tag)
	require.NoError(t, err)

	var chunks int
	for _, req := range tag.Requests {
		if len(req) == 5+chunkSize && req[1] == 0x9A {
			chunks++
		}
	}
	assert.Equal(t, bwryChunkCount, chunks)
}

func TestBWRYEngineDelays(t *testing.T) {
	t.Parallel()
	payload := testBWRYPayload(t)
	engine, err := NewEngine(EPaper154Y, payload)
	require.NoError(t, err)

	tag := einktest.NewBWRYTag()
	tag.BusyReads = 2
	exchanges, err := runEngine(t, engine, tag)
	require.NoError(t, err)

	var statusDelays []time.Duration
	for _, exch := range exchanges {
		if len(exch.Payload) > 1 && exch.Payload[1] == 0x9B {
			statusDelays = append(statusDelays, exch.Delay)
		}
	}
	require.Len(t, statusDelays, 3)
	assert.Equal(t, bwryInitialWait, statusDelays[0])
	assert.Equal(t, bwryPollInterval, statusDelays[1])
	assert.Equal(t, bwryPollInterval, statusDelays[2])
}

func TestBWRYEngineTransportErrorIsTerminal(t *testing.T) {
	t.Parallel()
	payload := testBWRYPayload(t)
	engine, err := NewEngine(EPaper154Y, payload)
	require.NoError(t, err)

	tag := einktest.NewBWRYTag()
	tag.FailAt = 5
	_, err = runEngine(t, engine, tag)
	require.ErrorIs(t, err, ErrTransmitFailed)
	assert.Equal(t, StateError, engine.State())

	// The engine stays dead: no new exchange, same failure reported.
	exch, err := engine.Step([]byte{0x90, 0x00}, nil)
	assert.Nil(t, exch)
	require.ErrorIs(t, err, ErrEngineFinished)
	assert.ErrorIs(t, err, ErrTransmitFailed)
	assert.Len(t, tag.Requests, 6)
}

func TestBWRYEngineBadStatusWords(t *testing.T) {
	t.Parallel()
	payload := testBWRYPayload(t)
	engine, err := NewEngine(EPaper154Y, payload)
	require.NoError(t, err)

	exch, err := engine.Step(nil, nil)
	require.NoError(t, err)
	require.NotNil(t, exch)

	_, err = engine.Step([]byte{0x6A, 0x82}, nil)
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Equal(t, StateError, engine.State())
}

func TestBWRYEngineBusyTimeout(t *testing.T) {
	t.Parallel()
	payload := testBWRYPayload(t)
	engine, err := NewEngine(EPaper154Y, payload, WithEngineBusyPollLimit(3))
	require.NoError(t, err)

	tag := einktest.NewBWRYTag()
	tag.BusyReads = 100
	_, err = runEngine(t, engine, tag)
	require.ErrorIs(t, err, ErrBusyTimeout)
	assert.Equal(t, StateError, engine.State())
}

func TestNewEngineRejectsFormatMismatch(t *testing.T) {
	t.Parallel()
	payload := testBWRYPayload(t)
	_, err := NewEngine(EPaper154B, payload)
	require.ErrorIs(t, err, ErrPayloadFormat)

	_, err = NewEngine(EPaper154Y, nil)
	require.ErrorIs(t, err, ErrPayloadFormat)
}
