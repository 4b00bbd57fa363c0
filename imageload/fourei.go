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

package imageload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	einknfc "github.com/ZaparooProject/go-eink-nfc"
)

// The .4ei container: "4EI1" magic, little-endian uint16 width and
// height, then row-major 2-bit pixels packed 4 per byte, MSB pair
// first. Unlike the wire payload it is NOT rotated; rotation happens in
// the protocol encoder.

// ErrNot4EI indicates the stream does not start with the 4EI1 magic.
var ErrNot4EI = errors.New("not a 4EI file")

var fourEIMagic = [4]byte{'4', 'E', 'I', '1'}

// Decode4EI reads a .4ei stream into a palette raster.
func Decode4EI(r io.Reader) (*einknfc.Image, error) {
	var header struct {
		Magic  [4]byte
		Width  uint16
		Height uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read 4EI header: %w", err)
	}
	if header.Magic != fourEIMagic {
		return nil, fmt.Errorf("%w: magic % X", ErrNot4EI, header.Magic)
	}
	width, height := int(header.Width), int(header.Height)
	if width == 0 || height == 0 || width%4 != 0 {
		return nil, fmt.Errorf("%w: bad dimensions %dx%d", ErrNot4EI, width, height)
	}

	packed := make([]byte, width/4*height)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, fmt.Errorf("failed to read 4EI pixel data: %w", err)
	}

	img := einknfc.NewImage(width, height)
	bytesPerRow := width / 4
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b := packed[y*bytesPerRow+x/4]
			shift := uint(6 - 2*(x%4))
			img.Set(x, y, (b>>shift)&0x03)
		}
	}
	return img, nil
}

// Load4EI reads a .4ei file.
func Load4EI(path string) (*einknfc.Image, error) {
	f, err := os.Open(path) //nolint:gosec // caller-controlled path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Decode4EI(f)
}

// Encode4EI writes img as a .4ei stream. Pixels must already be 4-color
// palette indices; the width must be a multiple of 4.
func Encode4EI(w io.Writer, img *einknfc.Image) error {
	if img.Width%4 != 0 {
		return fmt.Errorf("%w: width %d not a multiple of 4", ErrNot4EI, img.Width)
	}
	header := struct {
		Magic  [4]byte
		Width  uint16
		Height uint16
	}{fourEIMagic, uint16(img.Width), uint16(img.Height)}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write 4EI header: %w", err)
	}

	bytesPerRow := img.Width / 4
	packed := make([]byte, bytesPerRow*img.Height)
	for y := 0; y < img.Height; y++ {
		for col := 0; col < bytesPerRow; col++ {
			var b byte
			for bit := 0; bit < 4; bit++ {
				b = b<<2 | img.At(col*4+bit, y)&0x03
			}
			packed[y*bytesPerRow+col] = b
		}
	}
	if _, err := w.Write(packed); err != nil {
		return fmt.Errorf("failed to write 4EI pixel data: %w", err)
	}
	return nil
}
