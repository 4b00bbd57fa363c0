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

// ProgressFunc receives the engine state and overall completion after
// every protocol step. It is called from the writing goroutine; keep it
// fast.
type ProgressFunc func(state State, progress float64)

type writerConfig struct {
	progressFunc ProgressFunc
	// sleep implements the engine-requested delays. Tests substitute a
	// fake to avoid waiting out real refresh times.
	sleep             func(ctx context.Context, d time.Duration) error
	transceiveTimeout time.Duration
	busyPollLimit     int
}

func defaultWriterConfig() writerConfig {
	return writerConfig{
		sleep:         sleepContext,
		busyPollLimit: defaultEngineConfig().busyPollLimit,
	}
}

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

// WithProgressFunc installs a progress callback.
func WithProgressFunc(fn ProgressFunc) WriterOption {
	return func(cfg *writerConfig) {
		cfg.progressFunc = fn
	}
}

// WithBusyPollLimit bounds the number of busy-status polls before a
// write fails with ErrBusyTimeout.
func WithBusyPollLimit(limit int) WriterOption {
	return func(cfg *writerConfig) {
		if limit > 0 {
			cfg.busyPollLimit = limit
		}
	}
}

// WithTransceiveTimeout sets the per-exchange timeout on the underlying
// transceiver at construction time.
func WithTransceiveTimeout(timeout time.Duration) WriterOption {
	return func(cfg *writerConfig) {
		cfg.transceiveTimeout = timeout
	}
}
