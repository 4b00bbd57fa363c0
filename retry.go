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

// RetryConfig controls exchange-level retries in RetryTransceiver.
type RetryConfig struct {
	// MaxAttempts is the total number of tries per exchange.
	MaxAttempts int
	// InitialDelay is the backoff before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
	// Multiplier grows the backoff between attempts.
	Multiplier float64
}

// DefaultRetryConfig returns conservative retry settings. The backoff
// stays short: the tag harvests its power from the reader field, and a
// long gap mid-run risks the display controller browning out.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// RetryTransceiver wraps a Transceiver and retries exchanges that fail
// with a retryable transport error (see IsRetryable). Protocol-level
// failures, permanent errors and context cancellation pass straight
// through. The protocol engines see a single exchange either way; a
// run still fails terminally once the wrapper gives up.
type RetryTransceiver struct {
	inner Transceiver
	cfg   RetryConfig
}

// NewRetryTransceiver wraps inner with retry behavior.
func NewRetryTransceiver(inner Transceiver, cfg RetryConfig) *RetryTransceiver {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryTransceiver{inner: inner, cfg: cfg}
}

// Transceive performs the exchange, retrying transient failures with
// exponential backoff.
func (r *RetryTransceiver) Transceive(ctx context.Context, request []byte) ([]byte, error) {
	delay := r.cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		resp, err := r.inner.Transceive(ctx, request)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == r.cfg.MaxAttempts {
			break
		}
		debugf("retrying exchange after attempt %d: %v", attempt, err)
		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}
		delay = time.Duration(float64(delay) * r.cfg.Multiplier)
		if delay > r.cfg.MaxDelay {
			delay = r.cfg.MaxDelay
		}
	}
	return nil, lastErr
}

// WaitForTag delegates to the wrapped transceiver when it supports tag
// detection; otherwise it is a no-op.
func (r *RetryTransceiver) WaitForTag(ctx context.Context) error {
	if awaiter, ok := r.inner.(TagAwaiter); ok {
		return awaiter.WaitForTag(ctx)
	}
	return nil
}

// Close closes the wrapped transceiver.
func (r *RetryTransceiver) Close() error {
	return r.inner.Close()
}

// SetTimeout sets the wrapped transceiver's timeout.
func (r *RetryTransceiver) SetTimeout(timeout time.Duration) error {
	return r.inner.SetTimeout(timeout)
}

// IsConnected reports the wrapped transceiver's state.
func (r *RetryTransceiver) IsConnected() bool {
	return r.inner.IsConnected()
}

// Type returns the wrapped transceiver's type.
func (r *RetryTransceiver) Type() TransceiverType {
	return r.inner.Type()
}
