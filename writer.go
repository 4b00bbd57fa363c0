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
	"fmt"
	"sync/atomic"
	"time"
)

// Writer drives protocol engines over a single transceiver. It owns all
// timing: the engines only describe exchanges, the Writer sleeps the
// requested delays (context-aware) and performs the I/O.
//
// At most one write runs at a time; a second concurrent call fails with
// ErrWriteInProgress rather than interleaving exchanges on the shared
// transport.
type Writer struct {
	transceiver Transceiver
	cfg         writerConfig
	active      atomic.Bool
}

// NewWriter creates a Writer on the given transceiver. The Writer takes
// ownership: Close closes the transceiver too.
func NewWriter(transceiver Transceiver, opts ...WriterOption) (*Writer, error) {
	if transceiver == nil {
		return nil, fmt.Errorf("%w: nil transceiver", ErrDeviceNotFound)
	}
	w := &Writer{transceiver: transceiver, cfg: defaultWriterConfig()}
	for _, opt := range opts {
		opt(&w.cfg)
	}
	if w.cfg.transceiveTimeout > 0 {
		if err := transceiver.SetTimeout(w.cfg.transceiveTimeout); err != nil {
			return nil, fmt.Errorf("failed to set transceive timeout: %w", err)
		}
	}
	return w, nil
}

// Close releases the underlying transceiver.
func (w *Writer) Close() error {
	if err := w.transceiver.Close(); err != nil {
		return fmt.Errorf("failed to close transceiver: %w", err)
	}
	return nil
}

// Write encodes img for the tag model and writes it to the tag in the
// field. It blocks through the panel refresh, typically 4-8 s for BWR
// and 12-16 s for BWRY.
func (w *Writer) Write(ctx context.Context, tag TagType, img *Image) error {
	payload, err := Encode(tag, img)
	if err != nil {
		return err
	}
	return w.WritePayload(ctx, tag, payload)
}

// WritePayload writes an already-encoded payload to the tag in the
// field. The payload must have been encoded for the tag's format.
func (w *Writer) WritePayload(ctx context.Context, tag TagType, payload *Payload) error {
	if !w.active.CompareAndSwap(false, true) {
		return ErrWriteInProgress
	}
	defer w.active.Store(false)

	engine, err := NewEngine(tag, payload, WithEngineBusyPollLimit(w.cfg.busyPollLimit))
	if err != nil {
		return err
	}

	if awaiter, ok := w.transceiver.(TagAwaiter); ok {
		debugln("waiting for tag")
		if err := awaiter.WaitForTag(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrTagNotDetected, err)
		}
	}

	debugf("starting %v write to %q", tag.Protocol, tag.Name)
	return w.run(ctx, engine)
}

// run steps the engine to completion. Exchange results, including
// transport errors, are always fed back into the engine so it settles
// into a terminal state; the engine decides what is fatal.
func (w *Writer) run(ctx context.Context, engine Engine) error {
	var (
		resp    []byte
		exchErr error
	)
	for {
		exch, err := engine.Step(resp, exchErr)
		w.report(engine)
		if err != nil {
			return err
		}
		if exch == nil {
			return nil
		}
		if exch.Delay > 0 {
			if err := w.cfg.sleep(ctx, exch.Delay); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		resp, exchErr = w.transceiver.Transceive(ctx, exch.Payload)
	}
}

func (w *Writer) report(engine Engine) {
	if w.cfg.progressFunc != nil {
		w.cfg.progressFunc(engine.State(), engine.Progress())
	}
}

// sleepContext waits for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
