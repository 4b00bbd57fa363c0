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
	"errors"
	"fmt"
)

// Protocol and encoder errors
var (
	// ErrTagNotDetected indicates no tag answered in the NFC field.
	ErrTagNotDetected = errors.New("no tag detected")
	// ErrTransmitFailed indicates an exchange failed at the transport
	// level mid-run, typically because the tag left the field.
	ErrTransmitFailed = errors.New("command transmission failed")
	// ErrUnexpectedResponse indicates the tag answered with status words
	// other than 90 00.
	ErrUnexpectedResponse = errors.New("unexpected response from tag")
	// ErrBusyTimeout indicates the display refresh never signalled
	// completion within the busy-poll ceiling.
	ErrBusyTimeout = errors.New("busy poll timeout")
	// ErrPaletteOutOfRange indicates an image pixel references a palette
	// index the target format does not have.
	ErrPaletteOutOfRange = errors.New("palette index out of range")
	// ErrPayloadFormat indicates an encoded payload was handed to an
	// engine for a different image format.
	ErrPayloadFormat = errors.New("payload format mismatch")
	// ErrImageSize indicates the image dimensions do not match the tag.
	ErrImageSize = errors.New("image dimensions do not match tag")
	// ErrWriteInProgress indicates Write was called while a run is
	// already active on the same Writer.
	ErrWriteInProgress = errors.New("write already in progress")
	// ErrEngineFinished indicates a single-use engine was stepped after
	// reaching a terminal state.
	ErrEngineFinished = errors.New("engine already finished")
)

// Transport errors
var (
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportTimeout = errors.New("transport timeout")
	ErrDeviceNotFound   = errors.New("reader device not found")
	ErrDataTooLarge     = errors.New("data too large for transport frame")
	ErrFrameCorrupted   = errors.New("corrupted transport frame")
)

// ErrorType classifies errors for retry decisions.
type ErrorType int

const (
	// ErrorTypePermanent indicates an error that will not resolve by
	// retrying.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient indicates an error that may resolve by
	// retrying.
	ErrorTypeTransient
	// ErrorTypeTimeout indicates a timeout error.
	ErrorTypeTimeout
)

// TransportError wraps an error from a transceiver backend with context
// about the operation and port it occurred on.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError with explicit classification.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a retryable timeout TransportError.
func NewTimeoutError(op, port string) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       ErrTransportTimeout,
		Type:      ErrorTypeTimeout,
		Retryable: true,
	}
}

// NewFrameCorruptedError creates a retryable TransportError for a
// corrupted reader frame.
func NewFrameCorruptedError(op, port string) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       ErrFrameCorrupted,
		Type:      ErrorTypeTransient,
		Retryable: true,
	}
}

// NewDataTooLargeError creates a permanent TransportError for payloads
// exceeding the transport frame limit.
func NewDataTooLargeError(op, port string) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       ErrDataTooLarge,
		Type:      ErrorTypePermanent,
		Retryable: false,
	}
}

// IsRetryable reports whether an operation that failed with err is worth
// retrying at the transport level. Protocol-engine errors are never
// retryable: a failed run is terminal and requires tag re-presentation.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrFrameCorrupted):
		return true
	default:
		return false
	}
}

// GetErrorType returns the classification for err.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrFrameCorrupted):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
