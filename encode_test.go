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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBWRYSize(t *testing.T) {
	t.Parallel()
	payload, err := EncodeBWRY(NewImage(200, 200))
	require.NoError(t, err)
	assert.Equal(t, bwryPayloadSize, payload.Len())
	assert.Equal(t, FormatBWRY, payload.Format())
}

func TestEncodeBWRYPacking(t *testing.T) {
	t.Parallel()
	img := NewImage(200, 200)
	// First output byte is built from the first four pixels of the
	// leftmost source column (the panel scans rotated 90 degrees).
	img.Set(0, 0, ColorBlack)
	img.Set(0, 1, ColorWhite)
	img.Set(0, 2, ColorYellow)
	img.Set(0, 3, ColorRed)

	payload, err := EncodeBWRY(img)
	require.NoError(t, err)
	// 00 01 10 11 -> 0x1B
	assert.Equal(t, byte(0x1B), payload.Bytes()[0])
}

func TestEncodeBWRYRotation(t *testing.T) {
	t.Parallel()
	img := NewImage(200, 200)
	// A pixel at source (x=5, y=17) lands in output row 5: the output
	// byte index is row*50 + y/4, with the pair position y%4.
	img.Set(5, 17, ColorRed)

	payload, err := EncodeBWRY(img)
	require.NoError(t, err)
	b := payload.Bytes()[5*50+17/4]
	// 17%4 == 1: second pair from the top of the byte.
	assert.Equal(t, byte(ColorRed)<<4, b)
}

func TestEncodeBWRYPaletteRange(t *testing.T) {
	t.Parallel()
	img := NewImage(200, 200)
	img.Pix[1234] = 4
	_, err := EncodeBWRY(img)
	require.ErrorIs(t, err, ErrPaletteOutOfRange)
}

func TestEncodeBWRSize(t *testing.T) {
	t.Parallel()
	payload, err := EncodeBWR(NewImage(200, 200))
	require.NoError(t, err)
	assert.Equal(t, 2*bwrPlaneSize, payload.Len())
	assert.Equal(t, FormatBWR, payload.Format())
}

func TestEncodeBWRPlanes(t *testing.T) {
	t.Parallel()
	img := NewImage(200, 200)
	img.Set(0, 0, ColorWhite)
	img.Set(7, 0, BWRColorRed)
	img.Set(8, 1, ColorWhite)

	payload, err := EncodeBWR(img)
	require.NoError(t, err)
	data := payload.Bytes()
	bw, red := data[:bwrPlaneSize], data[bwrPlaneSize:]

	assert.Equal(t, byte(0x80), bw[0], "white pixel (0,0), MSB first")
	assert.Equal(t, byte(0x01), red[0], "red pixel (7,0), LSB of first byte")
	assert.Equal(t, byte(0x80), bw[25+1], "white pixel (8,1), second row second byte")
	assert.Zero(t, red[25+1])
}

func TestEncodeBWRPaletteRange(t *testing.T) {
	t.Parallel()
	img := NewImage(200, 200)
	img.Pix[0] = 3 // valid for BWRY, out of range for BWR
	_, err := EncodeBWR(img)
	require.ErrorIs(t, err, ErrPaletteOutOfRange)
}

func TestEncodeDispatch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		tag  TagType
		want ImageFormat
	}{
		{name: "BWRY tag", tag: EPaper154Y, want: FormatBWRY},
		{name: "BWR tag", tag: EPaper154B, want: FormatBWR},
	}
	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			payload, err := Encode(tt.tag, NewImage(200, 200))
			require.NoError(t, err)
			assert.Equal(t, tt.want, payload.Format())
		})
	}
}

func TestEncodeRejectsWrongSize(t *testing.T) {
	t.Parallel()
	_, err := Encode(EPaper154Y, NewImage(200, 100))
	require.ErrorIs(t, err, ErrImageSize)
}

func TestPayloadChunks(t *testing.T) {
	t.Parallel()
	img := NewImage(200, 200)
	for i := range img.Pix {
		img.Pix[i] = uint8(i) % 3
	}
	payload, err := EncodeBWR(img)
	require.NoError(t, err)

	full := payload.Bytes()
	assert.Equal(t, full[:chunkSize], payload.bwChunk(0))
	assert.Equal(t, full[bwrPlaneSize:bwrPlaneSize+chunkSize], payload.redChunk(0))
	last := payload.redChunk(planeChunkCount - 1)
	assert.Equal(t, full[len(full)-chunkSize:], last)
}

func TestPayloadBytesIsACopy(t *testing.T) {
	t.Parallel()
	payload, err := EncodeBWRY(NewImage(200, 200))
	require.NoError(t, err)
	b := payload.Bytes()
	b[0] = 0xFF
	assert.Zero(t, payload.Bytes()[0])
}
