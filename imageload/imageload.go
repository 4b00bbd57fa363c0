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

// Package imageload converts ordinary raster images into the palette
// rasters the tag encoders consume. It reads BMP files and the .4ei
// container, and quantizes full-color images onto the display palettes
// with optional Floyd-Steinberg dithering.
package imageload

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	einknfc "github.com/ZaparooProject/go-eink-nfc"
	"golang.org/x/image/bmp"
)

// BWRYPalette is the 4-color display palette, index order matching the
// encoder's palette codes.
var BWRYPalette = color.Palette{
	color.RGBA{A: 0xFF},                         // black
	color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, // white
	color.RGBA{R: 0xFF, G: 0xFF, A: 0xFF},          // yellow
	color.RGBA{R: 0xFF, A: 0xFF},                   // red
}

// BWRPalette is the 3-color display palette.
var BWRPalette = color.Palette{
	color.RGBA{A: 0xFF},                            // black
	color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, // white
	color.RGBA{R: 0xFF, A: 0xFF},                   // red
}

func paletteFor(format einknfc.ImageFormat) color.Palette {
	if format == einknfc.FormatBWRY {
		return BWRYPalette
	}
	return BWRPalette
}

// FromImage quantizes src onto the format's palette by nearest color,
// without dithering.
func FromImage(src image.Image, format einknfc.ImageFormat) *einknfc.Image {
	return quantize(src, format, draw.Src)
}

// FromImageDithered quantizes src onto the format's palette with
// Floyd-Steinberg error diffusion. Photographs look much better
// dithered; flat graphics usually do not.
func FromImageDithered(src image.Image, format einknfc.ImageFormat) *einknfc.Image {
	return quantize(src, format, draw.FloydSteinberg)
}

func quantize(src image.Image, format einknfc.ImageFormat, drawer draw.Drawer) *einknfc.Image {
	bounds := src.Bounds()
	paletted := image.NewPaletted(image.Rect(0, 0, bounds.Dx(), bounds.Dy()), paletteFor(format))
	drawer.Draw(paletted, paletted.Bounds(), src, bounds.Min)

	out := einknfc.NewImage(bounds.Dx(), bounds.Dy())
	// Paletted strides can exceed the width; copy row by row.
	for y := 0; y < out.Height; y++ {
		copy(out.Pix[y*out.Width:(y+1)*out.Width],
			paletted.Pix[y*paletted.Stride:y*paletted.Stride+out.Width])
	}
	return out
}

// DecodeBMP decodes a BMP stream and quantizes it for the format.
func DecodeBMP(r io.Reader, format einknfc.ImageFormat) (*einknfc.Image, error) {
	src, err := bmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode BMP: %w", err)
	}
	return FromImage(src, format), nil
}

// LoadBMP reads and quantizes a BMP file.
func LoadBMP(path string, format einknfc.ImageFormat) (*einknfc.Image, error) {
	f, err := os.Open(path) //nolint:gosec // caller-controlled path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return DecodeBMP(f, format)
}

// Decode decodes any registered image format (BMP, plus whatever the
// caller has imported) and quantizes it.
func Decode(r io.Reader, format einknfc.ImageFormat) (*einknfc.Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(src, format), nil
}

// ToImage renders a palette raster back into an RGBA image, mainly for
// previews and tests.
func ToImage(src *einknfc.Image, format einknfc.ImageFormat) *image.RGBA {
	palette := paletteFor(format)
	out := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			idx := int(src.At(x, y))
			if idx >= len(palette) {
				idx = 0
			}
			out.Set(x, y, palette[idx])
		}
	}
	return out
}
