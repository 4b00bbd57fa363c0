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
	"bytes"
	"errors"
	"testing"
)

func TestBuildSelectRegister(t *testing.T) {
	t.Parallel()
	got := buildSelectRegister(0xE0)
	want := []byte{0x74, 0x99, 0x00, 0x0D, 0x01, 0xE0}
	if !bytes.Equal(got, want) {
		t.Errorf("buildSelectRegister(0xE0) = % X, want % X", got, want)
	}
}

func TestBuildWriteData(t *testing.T) {
	t.Parallel()
	got := buildWriteData([]byte{0xC7, 0x00, 0x01})
	want := []byte{0x74, 0x9A, 0x00, 0x0E, 0x03, 0xC7, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("buildWriteData() = % X, want % X", got, want)
	}

	chunk := buildWriteData(make([]byte, chunkSize))
	if len(chunk) != 5+chunkSize {
		t.Errorf("chunk command length = %d, want %d", len(chunk), 5+chunkSize)
	}
	if chunk[4] != chunkSize {
		t.Errorf("length byte = %d, want %d", chunk[4], chunkSize)
	}
}

func TestChunkMath(t *testing.T) {
	t.Parallel()
	if bwryChunkCount*chunkSize != bwryPayloadSize {
		t.Errorf("BWRY payload %d does not divide into %d-byte chunks", bwryPayloadSize, chunkSize)
	}
	if planeChunkCount*chunkSize != bwrPlaneSize {
		t.Errorf("BWR plane %d does not divide into %d-byte chunks", bwrPlaneSize, chunkSize)
	}
	if bwryChunkCount != 40 {
		t.Errorf("bwryChunkCount = %d, want 40", bwryChunkCount)
	}
	if planeChunkCount != 20 {
		t.Errorf("planeChunkCount = %d, want 20", planeChunkCount)
	}
}

func TestCheckResponseStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		resp    []byte
		wantErr bool
	}{
		{
			name: "success status words",
			resp: []byte{0x90, 0x00},
		},
		{
			name: "payload with trailing status",
			resp: []byte{0x01, 0x90, 0x00},
		},
		{
			name: "empty response accepted",
			resp: nil,
		},
		{
			name: "single byte accepted",
			resp: []byte{0x01},
		},
		{
			name:    "error status words",
			resp:    []byte{0x6A, 0x82},
			wantErr: true,
		},
		{
			name:    "success words not at tail",
			resp:    []byte{0x90, 0x00, 0x01, 0x02},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := checkResponseStatus(tt.resp)
			if tt.wantErr {
				if !errors.Is(err, ErrUnexpectedResponse) {
					t.Errorf("checkResponseStatus() = %v, want ErrUnexpectedResponse", err)
				}
				return
			}
			if err != nil {
				t.Errorf("checkResponseStatus() = %v, want nil", err)
			}
		})
	}
}

func TestCommandTemplatesShareClassByte(t *testing.T) {
	t.Parallel()
	for _, cmd := range [][]byte{cmdInit, cmdGpio0, cmdGpio1, cmdReadStatus, cmdDisplayInit, cmdStartTx, cmdRefresh} {
		if cmd[0] != cmdClass {
			t.Errorf("command % X does not start with class byte %02X", cmd, cmdClass)
		}
	}
}
