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

import "fmt"

// Encoded payload sizes for the 200x200 panels.
const (
	// bwryPayloadSize is 200*200 pixels at 2 bits each.
	bwryPayloadSize = 10000
	// bwrPlaneSize is 200*200 pixels at 1 bit each; the BWR payload is
	// two such planes (B/W then Red) back to back.
	bwrPlaneSize = 5000
)

// Payload is the wire-format image buffer for one write attempt. It is
// tagged with the format it was encoded for, and engine constructors
// refuse a payload whose tag does not match their protocol, so a BWR
// buffer can never be streamed over the BWRY sequence or vice versa.
//
// A payload is immutable for the lifetime of the run that consumes it.
type Payload struct {
	data   []byte
	format ImageFormat
}

// Format returns the image format the payload was encoded for.
func (p *Payload) Format() ImageFormat {
	return p.format
}

// Len returns the total payload size in bytes.
func (p *Payload) Len() int {
	return len(p.data)
}

// Bytes returns a copy of the full payload. For BWR this is the B/W
// plane followed by the Red plane.
func (p *Payload) Bytes() []byte {
	out := make([]byte, len(p.data))
	copy(out, p.data)
	return out
}

// chunk returns the i-th 250-byte slice of the whole payload.
func (p *Payload) chunk(i int) []byte {
	return p.data[i*chunkSize : (i+1)*chunkSize]
}

// bwChunk returns the i-th chunk of the B/W plane (BWR payloads only).
func (p *Payload) bwChunk(i int) []byte {
	return p.data[i*chunkSize : (i+1)*chunkSize]
}

// redChunk returns the i-th chunk of the Red plane (BWR payloads only).
func (p *Payload) redChunk(i int) []byte {
	off := bwrPlaneSize + i*chunkSize
	return p.data[off : off+chunkSize]
}

// Encode encodes img for the given tag model, dispatching on its image
// format.
func Encode(tag TagType, img *Image) (*Payload, error) {
	if img.Width != tag.Width || img.Height != tag.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrImageSize, img.Width, img.Height, tag.Width, tag.Height)
	}
	switch tag.Format {
	case FormatBWRY:
		return EncodeBWRY(img)
	case FormatBWR:
		return EncodeBWR(img)
	default:
		return nil, fmt.Errorf("%w: %v", ErrPayloadFormat, tag.Format)
	}
}

// EncodeBWRY packs a 200x200 4-color image into the single 10,000-byte
// BWRY buffer: 4 pixels per byte, 2 bits each, most significant pair
// first.
//
// The pixel order is not row-major. The panel's source driver scans at
// 90 degrees to the image, so output byte [row][col] is built from the
// source pixels at [(col*4+bit)][row], bit = 0..3. Dropping this
// rotation yields a sideways image on hardware.
func EncodeBWRY(img *Image) (*Payload, error) {
	if err := validateIndices(img, FormatBWRY); err != nil {
		return nil, err
	}
	if img.Width != EPaper154Y.Width || img.Height != EPaper154Y.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrImageSize, img.Width, img.Height, EPaper154Y.Width, EPaper154Y.Height)
	}

	const bytesPerRow = 200 / 4
	data := make([]byte, bwryPayloadSize)
	for row := 0; row < 200; row++ {
		for col := 0; col < bytesPerRow; col++ {
			var b byte
			for bit := 0; bit < 4; bit++ {
				px := img.At(row, col*4+bit)
				b = b<<2 | px&0x03
			}
			data[row*bytesPerRow+col] = b
		}
	}
	return &Payload{data: data, format: FormatBWRY}, nil
}

// EncodeBWR packs a 200x200 3-color image into the two 5,000-byte BWR
// planes: 8 pixels per byte, MSB first, plain row-major. The B/W plane
// has a 1 bit where the pixel is white, the Red plane where it is red;
// black pixels are 0 in both. The planes land in different tag
// registers (0x24 and 0x26) and are kept back to back here, B/W first.
func EncodeBWR(img *Image) (*Payload, error) {
	if err := validateIndices(img, FormatBWR); err != nil {
		return nil, err
	}
	if img.Width != EPaper154B.Width || img.Height != EPaper154B.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrImageSize, img.Width, img.Height, EPaper154B.Width, EPaper154B.Height)
	}

	data := make([]byte, 2*bwrPlaneSize)
	bw, red := data[:bwrPlaneSize], data[bwrPlaneSize:]
	stride := img.Width / 8
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			mask := byte(0x80) >> (x & 7)
			switch img.At(x, y) {
			case ColorWhite:
				bw[y*stride+x/8] |= mask
			case BWRColorRed:
				red[y*stride+x/8] |= mask
			}
		}
	}
	return &Payload{data: data, format: FormatBWR}, nil
}

// validateIndices rejects any pixel outside the format's palette before
// a single byte is packed, so a failed encode leaves no partial output
// and no protocol run is ever started with a bad image.
func validateIndices(img *Image, format ImageFormat) error {
	limit := uint8(format.PaletteSize())
	for i, px := range img.Pix {
		if px >= limit {
			return fmt.Errorf("%w: index %d at pixel %d (palette size %d)",
				ErrPaletteOutOfRange, px, i, limit)
		}
	}
	return nil
}
