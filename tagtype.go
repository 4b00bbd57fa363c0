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

// ImageFormat selects the pixel encoding a tag expects.
type ImageFormat int

const (
	// FormatBWRY is the 4-color black/white/yellow/red format, one
	// 2-bit-per-pixel buffer.
	FormatBWRY ImageFormat = iota
	// FormatBWR is the 3-color black/white/red format, two
	// 1-bit-per-pixel planes.
	FormatBWR
)

// String returns the format name.
func (f ImageFormat) String() string {
	switch f {
	case FormatBWRY:
		return "BWRY"
	case FormatBWR:
		return "BWR"
	default:
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
}

// PaletteSize returns the number of palette entries for the format.
func (f ImageFormat) PaletteSize() int {
	if f == FormatBWRY {
		return 4
	}
	return 3
}

// Protocol selects the IsoDep command sequence used to drive a tag.
type Protocol int

const (
	// ProtocolBWRY is the IsoDep protocol for 4-color displays.
	ProtocolBWRY Protocol = iota
	// ProtocolGenB is the IsoDep protocol for 3-color displays.
	ProtocolGenB
)

// String returns the protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolBWRY:
		return "IsoDep-BWRY"
	case ProtocolGenB:
		return "IsoDep-GenB"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// TagType describes one supported e-ink tag model: its panel geometry,
// the pixel format it wants, and the protocol that drives it.
type TagType struct {
	// Name is the vendor's model name.
	Name string
	// Width is the panel width in pixels.
	Width int
	// Height is the panel height in pixels.
	Height int
	// Format is the required image format.
	Format ImageFormat
	// Protocol is the IsoDep protocol to use.
	Protocol Protocol
}

// The supported tag models. Tags whose protocols were never
// reverse-engineered (the GenA and NfcA variants) are deliberately
// absent.
var (
	// EPaper154Y is the 1.54" 4-color (BWRY) panel.
	EPaper154Y = TagType{
		Name:     "1.54inch e-Paper Y",
		Width:    200,
		Height:   200,
		Format:   FormatBWRY,
		Protocol: ProtocolBWRY,
	}

	// EPaper154B is the 1.54" 3-color (BWR) panel.
	EPaper154B = TagType{
		Name:     "1.54inch e-Paper B",
		Width:    200,
		Height:   200,
		Format:   FormatBWR,
		Protocol: ProtocolGenB,
	}
)

// TagTypes returns all supported tag models.
func TagTypes() []TagType {
	return []TagType{EPaper154Y, EPaper154B}
}

// TagTypeByName looks up a tag model by its Name field.
func TagTypeByName(name string) (TagType, bool) {
	for _, tt := range TagTypes() {
		if tt.Name == name {
			return tt, true
		}
	}
	return TagType{}, false
}
