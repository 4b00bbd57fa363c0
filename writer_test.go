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
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/go-eink-nfc/internal/einktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTagTransceiver wires a MockTransceiver to a virtual tag.
func newTagTransceiver(tag *einktest.VirtualTag) *MockTransceiver {
	mock := NewMockTransceiver()
	mock.ResponseFunc = func(_ int, request []byte) ([]byte, error) {
		return tag.Exchange(request)
	}
	return mock
}

// newTestWriter builds a Writer whose delays complete instantly while
// still being recorded.
func newTestWriter(t *testing.T, transceiver Transceiver, slept *[]time.Duration, opts ...WriterOption) *Writer {
	t.Helper()
	w, err := NewWriter(transceiver, opts...)
	require.NoError(t, err)
	var mu sync.Mutex
	w.cfg.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		if slept != nil {
			*slept = append(*slept, d)
		}
		return ctx.Err()
	}
	return w
}

func TestWriterFullBWRYWrite(t *testing.T) {
	t.Parallel()
	img := NewImage(200, 200)
	for i := range img.Pix {
		img.Pix[i] = uint8(i) % 4
	}

	tag := einktest.NewBWRYTag()
	var slept []time.Duration
	w := newTestWriter(t, newTagTransceiver(tag), &slept)

	require.NoError(t, w.Write(context.Background(), EPaper154Y, img))

	payload, err := EncodeBWRY(img)
	require.NoError(t, err)
	assert.Equal(t, payload.Bytes(), tag.ImageData)
	assert.Contains(t, slept, bwryInitialWait)
}

func TestWriterFullGenBWrite(t *testing.T) {
	t.Parallel()
	img := NewImage(200, 200)
	for i := range img.Pix {
		img.Pix[i] = uint8(i) % 3
	}

	tag := einktest.NewGenBTag()
	tag.BusyReads = 2
	w := newTestWriter(t, newTagTransceiver(tag), nil)

	require.NoError(t, w.Write(context.Background(), EPaper154B, img))
	assert.Len(t, tag.BWData, bwrPlaneSize)
	assert.Len(t, tag.RedData, bwrPlaneSize)
	assert.Equal(t, 3, tag.StatusReads())
}

func TestWriterReportsProgress(t *testing.T) {
	t.Parallel()
	img := NewImage(200, 200)

	tag := einktest.NewBWRYTag()
	var progress []float64
	w := newTestWriter(t, newTagTransceiver(tag), nil,
		WithProgressFunc(func(_ State, p float64) {
			progress = append(progress, p)
		}))

	require.NoError(t, w.Write(context.Background(), EPaper154Y, img))
	require.NotEmpty(t, progress)
	assert.InDelta(t, 1.0, progress[len(progress)-1], 0.001)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
}

func TestWriterSingleWriter(t *testing.T) {
	t.Parallel()
	blocking := NewBlockingMockTransceiver()
	w, err := NewWriter(blocking)
	require.NoError(t, err)

	payload := testBWRYPayload(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.WritePayload(ctx, EPaper154Y, payload)
	}()

	// Wait for the first write to reach the blocked exchange.
	require.Eventually(t, func() bool {
		return w.active.Load()
	}, time.Second, time.Millisecond)

	err = w.WritePayload(ctx, EPaper154Y, payload)
	require.ErrorIs(t, err, ErrWriteInProgress)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// The slot is released after the failed run.
	require.Eventually(t, func() bool {
		return !w.active.Load()
	}, time.Second, time.Millisecond)
}

func TestWriterContextCancellation(t *testing.T) {
	t.Parallel()
	tag := einktest.NewBWRYTag()
	w, err := NewWriter(newTagTransceiver(tag))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = w.WritePayload(ctx, EPaper154Y, testBWRYPayload(t))
	require.ErrorIs(t, err, context.Canceled)
}

// awaitingTransceiver is a MockTransceiver that also reports tag
// arrival.
type awaitingTransceiver struct {
	*MockTransceiver
	waited bool
}

func (a *awaitingTransceiver) WaitForTag(ctx context.Context) error {
	a.waited = true
	return ctx.Err()
}

func TestWriterWaitsForTag(t *testing.T) {
	t.Parallel()
	tag := einktest.NewBWRYTag()
	transceiver := &awaitingTransceiver{MockTransceiver: newTagTransceiver(tag)}
	w := newTestWriter(t, transceiver, nil)

	require.NoError(t, w.Write(context.Background(), EPaper154Y, NewImage(200, 200)))
	assert.True(t, transceiver.waited)
}

func TestWriterRejectsWrongImageSize(t *testing.T) {
	t.Parallel()
	w, err := NewWriter(NewMockTransceiver())
	require.NoError(t, err)
	err = w.Write(context.Background(), EPaper154Y, NewImage(100, 100))
	require.ErrorIs(t, err, ErrImageSize)
}

func TestWriterClose(t *testing.T) {
	t.Parallel()
	mock := NewMockTransceiver()
	w, err := NewWriter(mock)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.False(t, mock.IsConnected())
}
