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
	"time"
)

// MockTransceiver is an in-memory Transceiver for tests. Every request
// is recorded; responses come from ResponseFunc when set, otherwise
// from the fixed Response.
type MockTransceiver struct {
	// ResponseFunc computes the response for a request. exchange is the
	// zero-based index of the call.
	ResponseFunc func(exchange int, request []byte) ([]byte, error)
	// Response is returned for every request when ResponseFunc is nil.
	Response []byte

	requests [][]byte
	timeout  time.Duration
	mu       sync.Mutex
	closed   bool
}

// NewMockTransceiver creates a mock that answers every request with
// success status words.
func NewMockTransceiver() *MockTransceiver {
	return &MockTransceiver{Response: []byte{0x90, 0x00}}
}

// Transceive records the request and returns the configured response.
func (m *MockTransceiver) Transceive(ctx context.Context, request []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrTransportWrite
	}
	idx := len(m.requests)
	m.requests = append(m.requests, append([]byte(nil), request...))
	if m.ResponseFunc != nil {
		return m.ResponseFunc(idx, request)
	}
	return append([]byte(nil), m.Response...), nil
}

// Requests returns copies of every request transceived so far.
func (m *MockTransceiver) Requests() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.requests))
	for i, req := range m.requests {
		out[i] = append([]byte(nil), req...)
	}
	return out
}

// Close marks the mock closed; further exchanges fail.
func (m *MockTransceiver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout records the timeout.
func (m *MockTransceiver) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected returns true until Close.
func (m *MockTransceiver) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransceiverMock.
func (*MockTransceiver) Type() TransceiverType {
	return TransceiverMock
}

// BlockingMockTransceiver blocks every Transceive until Unblock is
// called, the context is canceled, or the transceiver is closed. Used
// to test cancellation and single-writer behavior.
type BlockingMockTransceiver struct {
	blockChan chan struct{}
	Response  []byte
	mu        sync.Mutex
	closed    bool
}

// NewBlockingMockTransceiver creates a blocking mock that answers with
// success status words once unblocked.
func NewBlockingMockTransceiver() *BlockingMockTransceiver {
	return &BlockingMockTransceiver{
		blockChan: make(chan struct{}),
		Response:  []byte{0x90, 0x00},
	}
}

// Transceive blocks until Unblock, Close or ctx cancellation.
func (m *BlockingMockTransceiver) Transceive(ctx context.Context, _ []byte) ([]byte, error) {
	m.mu.Lock()
	blockChan := m.blockChan
	closed := m.closed
	response := m.Response
	m.mu.Unlock()

	if closed {
		return nil, ErrTransportWrite
	}

	select {
	case <-blockChan:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return append([]byte(nil), response...), nil
}

// Unblock allows the currently blocked exchanges to proceed.
func (m *BlockingMockTransceiver) Unblock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		close(m.blockChan)
		m.blockChan = make(chan struct{})
	}
}

// Close unblocks everything and marks the transceiver closed.
func (m *BlockingMockTransceiver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.blockChan)
	}
	return nil
}

// SetTimeout is a no-op for the blocking mock.
func (*BlockingMockTransceiver) SetTimeout(time.Duration) error {
	return nil
}

// IsConnected returns true until Close.
func (m *BlockingMockTransceiver) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransceiverMock.
func (*BlockingMockTransceiver) Type() TransceiverType {
	return TransceiverMock
}
