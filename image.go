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

// Palette indices. Color matching is positional: whatever prepared the
// image (dithering, quantization) must already have mapped pixels onto
// these indices. The encoders never compare RGB values.
//
// BWRY order: Black, White, Yellow, Red.
// BWR order: Black, White, Red.
const (
	ColorBlack  uint8 = 0
	ColorWhite  uint8 = 1
	ColorYellow uint8 = 2 // BWRY only
	ColorRed    uint8 = 3

	// BWRColorRed is the red index in the 3-entry BWR palette.
	BWRColorRed uint8 = 2
)

// Image is a width x height raster of palette indices, row-major.
// The encoders borrow it read-only; callers keep ownership.
type Image struct {
	// Pix holds one palette index per pixel, len Width*Height,
	// row-major.
	Pix []uint8
	// Width in pixels.
	Width int
	// Height in pixels.
	Height int
}

// NewImage allocates a zero-filled (all-black) image.
func NewImage(width, height int) *Image {
	return &Image{
		Pix:    make([]uint8, width*height),
		Width:  width,
		Height: height,
	}
}

// At returns the palette index at (x, y). No bounds checking.
func (m *Image) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

// Set stores a palette index at (x, y). No bounds checking.
func (m *Image) Set(x, y int, idx uint8) {
	m.Pix[y*m.Width+x] = idx
}
